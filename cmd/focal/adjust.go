package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"focal/internal/model"
	"focal/internal/reflection"
)

func adjustCmd() *cobra.Command {
	var semantic bool

	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Re-rank the latest plan from current reflections, without an LLM call",
		Long:  "Apply recency-weighted reflection nudges to the latest plan's ordering. Lexical matching by default; --semantic scores relevance with embeddings instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, repoRoot, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rec, err := st.LatestPlan(ctx)
			if err != nil {
				return fmt.Errorf("no plan to adjust: %w", err)
			}

			// Plan order, minus tasks completed or dismissed since.
			tasks := make([]model.Task, 0, len(rec.Plan.OrderedTaskIDs))
			for _, id := range rec.Plan.OrderedTaskIDs {
				task, err := st.GetTask(ctx, id)
				if err != nil {
					return err
				}
				if task.Status == model.StatusPending {
					tasks = append(tasks, task)
				}
			}
			reflections, err := st.ListReflections(ctx, true)
			if err != nil {
				return err
			}

			var scorer reflection.Scorer = reflection.LexicalScorer{}
			if semantic {
				provider, err := newEmbeddingProvider(cfg)
				if err != nil {
					return err
				}
				scorer = reflection.NewEmbeddingScorer(provider)
			}

			confidence := make(map[string]float64, len(rec.Plan.TaskScores))
			for _, s := range rec.Plan.TaskScores {
				confidence[s.TaskID] = s.Confidence
			}

			adjuster := reflection.NewAdjuster(scorer, cfg.Prioritize.NudgeGain)
			plan, err := adjuster.Adjust(ctx, tasks, reflections, confidence, time.Now())
			if err != nil {
				return err
			}

			if err := st.SetPreviousRanks(ctx, plan.OrderedTaskIDs); err != nil {
				return err
			}

			log.Info().
				Int("moved", plan.Metadata.MovedCount).
				Int("filtered", plan.Metadata.FilteredCount).
				Dur("duration", plan.Metadata.Duration).
				Msg("plan adjusted")

			for i, id := range plan.OrderedTaskIDs {
				_, _ = io.WriteString(os.Stdout, fmt.Sprintf("%2d. %s\n", i+1, id))
			}
			for _, m := range plan.Moved {
				_, _ = io.WriteString(os.Stdout, fmt.Sprintf("moved %s: %d -> %d (%s)\n", m.TaskID, m.From+1, m.To+1, m.Reason))
			}
			for _, f := range plan.Filtered {
				_, _ = io.WriteString(os.Stdout, fmt.Sprintf("filtered %s: %s\n", f.TaskID, f.Reason))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&semantic, "semantic", false, "score relevance with embeddings instead of token overlap")
	return cmd
}
