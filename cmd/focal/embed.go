package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"focal/internal/embedding"
)

func embedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "embed",
		Short: "Generate embeddings for tasks that lack them",
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
			provider, err := newEmbeddingProvider(cfg)
			if err != nil {
				return err
			}

			tasks, err := st.TasksWithoutEmbedding(cmd.Context())
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				log.Info().Msg("all tasks already embedded")
				return nil
			}

			queue := embedding.NewQueue(provider, st, embedding.NewMetrics(),
				cfg.Embedding.BatchSize, cfg.Embedding.Concurrency)
			res, err := queue.Enqueue(cmd.Context(), tasks, "backlog")
			if err != nil {
				return err
			}

			log.Info().
				Int("success", res.Success).
				Int("pending", res.Pending).
				Int("failed", res.Failed).
				Dur("duration", res.Duration).
				Msg("embedding run finished")
			if res.Pending > 0 {
				log.Warn().Msgf("%d tasks hit retryable errors; run `focal embed` again", res.Pending)
			}
			for _, item := range res.Items {
				if item.Status == embedding.ItemFailed {
					log.Error().Str("task_id", item.TaskID).Msg(item.ErrorMessage)
				}
			}
			return nil
		},
	}
}
