package model

import (
	"fmt"
	"strings"
)

const (
	minTaskReasoningLen = 10
	minCriticalPathLen  = 20
)

var placeholderReasonings = map[string]bool{
	"n/a":       true,
	"none":      true,
	"reasoning": true,
	"todo":      true,
	"...":       true,
}

// Validate checks the structural invariants of a generator output:
// ordered_task_ids must be exactly the included-task id set with no
// duplicates, every included task must carry a score, and reasoning
// fields must not be placeholder text.
func (r PrioritizationResult) Validate() error {
	if len(r.OrderedTaskIDs) == 0 {
		return fmt.Errorf("ordered_task_ids is empty")
	}

	included := make(map[string]bool, len(r.IncludedTasks))
	for _, t := range r.IncludedTasks {
		if included[t.TaskID] {
			return fmt.Errorf("included_tasks contains %s twice", t.TaskID)
		}
		included[t.TaskID] = true
	}

	seen := make(map[string]bool, len(r.OrderedTaskIDs))
	for _, id := range r.OrderedTaskIDs {
		if seen[id] {
			return fmt.Errorf("ordered_task_ids contains %s twice", id)
		}
		seen[id] = true
		if !included[id] {
			return fmt.Errorf("ordered_task_ids contains %s which is not in included_tasks", id)
		}
	}
	if len(seen) != len(included) {
		for id := range included {
			if !seen[id] {
				return fmt.Errorf("included task %s missing from ordered_task_ids", id)
			}
		}
	}

	scored := make(map[string]bool, len(r.TaskScores))
	for _, s := range r.TaskScores {
		if err := validateReasoning(s.Reasoning, minTaskReasoningLen); err != nil {
			return fmt.Errorf("task_scores[%s]: %w", s.TaskID, err)
		}
		scored[s.TaskID] = true
	}
	for id := range included {
		if !scored[id] {
			return fmt.Errorf("no score for included task %s", id)
		}
	}

	if err := validateReasoning(r.CriticalPath, minCriticalPathLen); err != nil {
		return fmt.Errorf("critical_path_reasoning: %w", err)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0,1]", r.Confidence)
	}
	return nil
}

func validateReasoning(text string, minLen int) error {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minLen {
		return fmt.Errorf("reasoning too short (%d chars, need %d)", len(trimmed), minLen)
	}
	if placeholderReasonings[strings.ToLower(trimmed)] {
		return fmt.Errorf("reasoning is placeholder text %q", trimmed)
	}
	return nil
}

// Validate checks an evaluator output: the verdict must be a known
// status and feedback must be non-empty when improvement is requested,
// since that feedback drives the next generator attempt.
func (e EvaluationResult) Validate() error {
	switch e.Status {
	case VerdictPass:
	case VerdictNeedsImprovement:
		if strings.TrimSpace(e.Feedback) == "" {
			return fmt.Errorf("status %s requires non-empty feedback", VerdictNeedsImprovement)
		}
	default:
		return fmt.Errorf("unknown evaluation status %q", e.Status)
	}
	return nil
}
