package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"focal/internal/logging"
	"focal/internal/model"
	"focal/internal/planner"
	"focal/internal/store"
)

func prioritizeCmd() *cobra.Command {
	var constraints []string

	cmd := &cobra.Command{
		Use:   "prioritize <outcome>",
		Short: "Produce a prioritized plan for an outcome",
		Long:  "Run the generate-evaluate loop over the pending tasks and active reflections. The resulting plan is persisted and its ordering recorded on the tasks.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome := strings.TrimSpace(strings.Join(args, " "))
			if outcome == "" {
				return fmt.Errorf("outcome is required")
			}

			st, repoRoot, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}
			generator, err := newGenerator(cfg)
			if err != nil {
				return err
			}
			evaluator, err := newEvaluator(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			tasks, err := st.ListTasks(ctx, model.StatusPending)
			if err != nil {
				return err
			}
			reflections, err := st.ListReflections(ctx, true)
			if err != nil {
				return err
			}

			req := planner.Request{
				Outcome:     outcome,
				Tasks:       tasks,
				Reflections: reflections,
				Constraints: constraints,
			}
			if prev, err := st.LatestPlan(ctx); err == nil {
				req.PreviousPlan = &prev.Plan
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			p := planner.New(generator, evaluator, planner.Config{
				ConfidenceThreshold: cfg.Prioritize.ConfidenceThreshold,
				MaxIterations:       cfg.Prioritize.MaxIterations,
			})
			out, err := p.Run(ctx, req)
			if err != nil {
				return err
			}

			rec := store.PlanRecord{
				ID:         out.Metadata.PlanID,
				Outcome:    outcome,
				Converged:  out.Metadata.Converged,
				Iterations: out.Metadata.Iterations,
				Confidence: out.Plan.Confidence,
				Plan:       out.Plan,
				Chain:      out.Chain,
			}
			if err := st.SavePlan(ctx, rec); err != nil {
				return err
			}

			printPlan(out)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&constraints, "constraint", nil, "planning constraint (repeatable)")
	return cmd
}

func printPlan(out planner.Outcome) {
	if out.Metadata.Converged {
		log.Info().
			Str("plan_id", out.Metadata.PlanID).
			Int("iterations", out.Metadata.Iterations).
			Float64("confidence", out.Plan.Confidence).
			Msg("plan converged")
	} else {
		log.Warn().
			Str("plan_id", out.Metadata.PlanID).
			Int("iterations", out.Metadata.Iterations).
			Msg("plan did not converge; showing last attempt")
	}

	scores := make(map[string]model.TaskScore, len(out.Plan.TaskScores))
	for _, s := range out.Plan.TaskScores {
		scores[s.TaskID] = s
	}
	for i, id := range out.Plan.OrderedTaskIDs {
		line := fmt.Sprintf("%2d. %s", i+1, id)
		if s, ok := scores[id]; ok {
			reason := s.BriefReasoning
			if reason == "" {
				reason = s.Reasoning
			}
			line = fmt.Sprintf("%s\timpact=%.0f effort=%.0f\t%s", line, s.Impact, s.Effort, reason)
		}
		_, _ = io.WriteString(os.Stdout, line+"\n")
	}
	for _, ex := range out.Plan.ExcludedTasks {
		_, _ = io.WriteString(os.Stdout, fmt.Sprintf("excluded: %s\t%s\n", ex.TaskID, ex.Reason))
	}
	if out.Evaluation != nil && out.Evaluation.Status == model.VerdictNeedsImprovement {
		_, _ = io.WriteString(os.Stdout, "evaluator feedback: "+out.Evaluation.Feedback+"\n")
	}
	if logging.DebugEnabled() {
		if raw, err := json.MarshalIndent(out.Chain, "", "  "); err == nil {
			_, _ = os.Stdout.Write(append(raw, '\n'))
		}
	}
}
