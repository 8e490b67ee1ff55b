package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"focal/internal/embedding"
	"focal/internal/model"
	"focal/internal/store"
)

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(taskAddCmd())
	cmd.AddCommand(taskAcceptCmd())
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskEditCmd())
	cmd.AddCommand(taskDoneCmd())
	cmd.AddCommand(taskDismissCmd())
	cmd.AddCommand(taskDependCmd())
	return cmd
}

func taskAddCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.TrimSpace(strings.Join(args, " "))
			if description == "" {
				return fmt.Errorf("description is required")
			}
			st, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			// Tasks typed in by hand are manual; tasks imported from a
			// document carry their source instead.
			manual := strings.TrimSpace(source) == ""
			task, err := st.AddTask(cmd.Context(), description, strings.TrimSpace(source), manual)
			if err != nil {
				return err
			}
			log.Info().Msgf("task %s added", task.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "source document this task was extracted from")
	return cmd
}

func taskAcceptCmd() *cobra.Command {
	var needs []string

	cmd := &cobra.Command{
		Use:   "accept <description>",
		Short: "Accept a draft task into the backlog",
		Long:  "Promote a bridging draft into a real task plus its prerequisite edges in one transaction. Near-duplicates of existing pending tasks and edges that would close a cycle reject the whole draft.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("description is required")
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
			provider, err := newEmbeddingProvider(cfg)
			if err != nil {
				log.Warn().Err(err).Msg("embedding provider unavailable; duplicate check skipped")
				provider = nil
			}

			task, err := acceptDraft(cmd.Context(), st, provider, cfg.Prioritize.DedupeThreshold, text, needs)
			if err != nil {
				return err
			}
			log.Info().Msgf("draft accepted as task %s", task.ID)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&needs, "needs", nil, "prerequisite task id (repeatable)")
	return cmd
}

// acceptDraft embeds the draft text when a provider is available, then
// promotes it. A draft without a vector skips the duplicate check but
// still goes through the cycle check on its edges.
func acceptDraft(ctx context.Context, st *store.Store, provider embedding.Provider, threshold float64, text string, needs []string) (model.Task, error) {
	draft := model.DraftTask{
		ID:     uuid.NewString(),
		Text:   text,
		Source: model.DraftSourceSemantic,
	}
	if provider != nil {
		vec, err := provider.Embed(ctx, text)
		if err != nil {
			log.Warn().Err(err).Msg("draft embedding failed; duplicate check skipped")
		} else {
			draft.Embedding = vec
		}
	}

	edges := make([]model.DependencyEdge, 0, len(needs))
	for _, dep := range needs {
		edges = append(edges, model.DependencyEdge{
			SourceID:        dep,
			TargetID:        draft.ID,
			Relationship:    model.RelPrerequisite,
			Confidence:      1.0,
			DetectionMethod: model.DetectionManual,
		})
	}
	if len(edges) > 0 {
		draft.Source = model.DraftSourceDependency
	}
	return st.PromoteDraft(ctx, draft, edges, float32(threshold))
}

func taskListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			items, err := st.ListTasks(cmd.Context(), status)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				log.Info().Msg("no tasks")
				return nil
			}
			for _, item := range items {
				rank := "-"
				if item.PreviousRank != nil {
					rank = fmt.Sprintf("%d", *item.PreviousRank)
				}
				origin := "extracted"
				if item.Manual {
					origin = "manual"
				}
				_, _ = io.WriteString(os.Stdout, fmt.Sprintf("%s\t%s\t%s\t%s\t%s\n", item.ID, item.Status, rank, origin, item.Description))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending|done|dismissed)")
	return cmd
}

func taskEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <description>",
		Short: "Rewrite a task's description",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			description := strings.TrimSpace(strings.Join(args[1:], " "))
			if description == "" {
				return fmt.Errorf("description is required")
			}
			st, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := st.UpdateDescription(cmd.Context(), id, description); err != nil {
				return err
			}
			log.Info().Msgf("task %s updated; run `focal embed` to refresh its vector", id)
			return nil
		},
	}
}

func taskDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := st.MarkStatus(cmd.Context(), args[0], model.StatusDone); err != nil {
				return err
			}
			log.Info().Msgf("task %s done", args[0])
			return nil
		},
	}
}

func taskDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss a task without completing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := st.MarkStatus(cmd.Context(), args[0], model.StatusDismissed); err != nil {
				return err
			}
			log.Info().Msgf("task %s dismissed", args[0])
			return nil
		},
	}
}

func taskDependCmd() *cobra.Command {
	var on []string
	cmd := &cobra.Command{
		Use:   "depend <id>",
		Short: "Declare prerequisite tasks",
		Long:  "Declare that a task depends on one or more prerequisites. Edges that would close a dependency cycle are rejected as a batch.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			if len(on) == 0 {
				return fmt.Errorf("at least one --on id is required")
			}
			st, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			edges := make([]model.DependencyEdge, 0, len(on))
			for _, dep := range on {
				edges = append(edges, model.DependencyEdge{
					SourceID:        dep,
					TargetID:        taskID,
					Relationship:    model.RelPrerequisite,
					Confidence:      1.0,
					DetectionMethod: model.DetectionManual,
				})
			}
			if err := st.AddEdges(cmd.Context(), edges); err != nil {
				return err
			}
			log.Info().Msgf("task %s now depends on %s", taskID, strings.Join(on, ", "))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&on, "on", nil, "prerequisite task id (repeatable)")
	return cmd
}
