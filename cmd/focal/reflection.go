package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"focal/internal/reflection"
)

func reflectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reflection",
		Short: "Manage reflections",
		Long:  "Reflections are free-text guidance that biases ranking. Their influence decays with age: full weight for a week, half to two weeks, a quarter after that.",
	}
	cmd.AddCommand(reflectionAddCmd())
	cmd.AddCommand(reflectionListCmd())
	cmd.AddCommand(reflectionToggleCmd())
	return cmd
}

func reflectionAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add an active reflection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("text is required")
			}
			st, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			ref, err := st.AddReflection(cmd.Context(), text)
			if err != nil {
				return err
			}
			log.Info().Msgf("reflection %s added", ref.ID)
			return nil
		},
	}
}

func reflectionListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reflections with their current weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			items, err := st.ListReflections(cmd.Context(), !all)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				log.Info().Msg("no reflections")
				return nil
			}
			now := time.Now()
			for _, item := range items {
				state := "active"
				if !item.Active {
					state = "inactive"
				}
				_, _ = io.WriteString(os.Stdout, fmt.Sprintf("%s\t%s\t%.2f\t%s\n",
					item.ID, state, reflection.Weight(item.CreatedAt, now), item.Text))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive reflections")
	return cmd
}

func reflectionToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a reflection's active flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			active, err := st.ToggleReflection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			state := "inactive"
			if active {
				state = "active"
			}
			log.Info().Msgf("reflection %s is now %s", args[0], state)
			return nil
		},
	}
}
