package reflection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"focal/internal/model"
)

// DefaultNudgeGain converts a combined relevance*recency nudge into
// rank positions. A gain of 2 means a fully-relevant fresh reflection
// can pull a task two positions forward.
const DefaultNudgeGain = 2.0

// Adjuster re-ranks a baseline plan from the currently active
// reflections without an LLM call. Safe to call redundantly: the same
// inputs always produce the same adjusted plan.
type Adjuster struct {
	scorer Scorer
	gain   float64
}

// NewAdjuster creates an adjuster with the given relevance scorer.
func NewAdjuster(scorer Scorer, gain float64) *Adjuster {
	if gain <= 0 {
		gain = DefaultNudgeGain
	}
	return &Adjuster{scorer: scorer, gain: gain}
}

// Adjust recomputes the ordering of tasks (given in baseline plan
// order) by applying recency-weighted semantic nudges from the active
// reflections. confidence carries the baseline per-task confidence
// scores through to the adjusted plan; it may be nil.
func (a *Adjuster) Adjust(ctx context.Context, tasks []model.Task, reflections []model.Reflection, confidence map[string]float64, now time.Time) (model.AdjustedPlan, error) {
	start := time.Now()

	active := make([]model.Reflection, 0, len(reflections))
	influences := make([]model.ReflectionInfluence, 0, len(reflections))
	for _, r := range reflections {
		if !r.Active {
			continue
		}
		active = append(active, r)
		influences = append(influences, model.ReflectionInfluence{
			ReflectionID: r.ID,
			Weight:       Weight(r.CreatedAt, now),
		})
	}

	excluder, _ := a.scorer.(Excluder)

	var filtered []model.FilteredTask
	survivors := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		suppressed := false
		if excluder != nil {
			for _, r := range active {
				if ok, topic := excluder.Excludes(task.Description, r.Text); ok {
					filtered = append(filtered, model.FilteredTask{
						TaskID: task.ID,
						Reason: fmt.Sprintf("reflection %s excludes topic %q", r.ID, topic),
					})
					suppressed = true
					break
				}
			}
		}
		if !suppressed {
			survivors = append(survivors, task)
		}
	}

	// Positions are tracked over the survivor ordering so that a
	// filtered task does not shift every later task into the moved set.
	type ranked struct {
		task      model.Task
		from      int
		score     float64
		nudge     float64
		strongest string
	}
	entries := make([]ranked, 0, len(survivors))
	for i, task := range survivors {
		var nudge, best float64
		var strongest string
		for j, r := range active {
			rel, err := a.scorer.Relevance(ctx, task.Description, r.Text)
			if err != nil {
				return model.AdjustedPlan{}, fmt.Errorf("score task %s against reflection %s: %w", task.ID, r.ID, err)
			}
			contribution := rel * influences[j].Weight
			nudge += contribution
			if contribution > best {
				best = contribution
				strongest = r.ID
			}
		}
		entries = append(entries, ranked{
			task:      task,
			from:      i,
			score:     float64(i) - a.gain*nudge,
			nudge:     nudge,
			strongest: strongest,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].score < entries[j].score })

	plan := model.AdjustedPlan{
		OrderedTaskIDs: make([]string, 0, len(entries)),
		Filtered:       filtered,
	}
	if confidence != nil {
		plan.ConfidenceScores = make(map[string]float64, len(entries))
	}
	for to, e := range entries {
		plan.OrderedTaskIDs = append(plan.OrderedTaskIDs, e.task.ID)
		if confidence != nil {
			if c, ok := confidence[e.task.ID]; ok {
				plan.ConfidenceScores[e.task.ID] = c
			}
		}
		if e.from != to {
			reason := fmt.Sprintf("reflection alignment nudge %.2f", e.nudge)
			if e.strongest != "" {
				reason = fmt.Sprintf("reflection %s alignment nudge %.2f", e.strongest, e.nudge)
			}
			plan.Moved = append(plan.Moved, model.MovedTask{
				TaskID: e.task.ID,
				From:   e.from,
				To:     to,
				Reason: reason,
			})
		}
	}

	plan.Metadata = model.AdjustmentMetadata{
		Reflections:   influences,
		MovedCount:    len(plan.Moved),
		FilteredCount: len(filtered),
		Duration:      time.Since(start),
	}

	log.Debug().
		Int("tasks", len(tasks)).
		Int("active_reflections", len(active)).
		Int("moved", plan.Metadata.MovedCount).
		Int("filtered", plan.Metadata.FilteredCount).
		Msg("reflection adjustment computed")

	return plan, nil
}
