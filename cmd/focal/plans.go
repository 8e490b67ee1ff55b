package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func plansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Inspect saved plans",
	}
	cmd.AddCommand(plansListCmd())
	cmd.AddCommand(plansShowCmd())
	return cmd
}

func plansListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved plans, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			items, err := st.ListPlans(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				log.Info().Msg("no plans")
				return nil
			}
			for _, item := range items {
				state := "converged"
				if !item.Converged {
					state = "not-converged"
				}
				_, _ = io.WriteString(os.Stdout, fmt.Sprintf("%s\t%s\t%s\t%d iter\t%.2f\t%s\n",
					item.ID, item.CreatedAt.Format(time.RFC3339), state, item.Iterations, item.Confidence, item.Outcome))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of plans to list")
	return cmd
}

func plansShowCmd() *cobra.Command {
	var chain bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a plan as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			rec, err := st.GetPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var payload any = rec.Plan
			if chain {
				payload = rec.Chain
			}
			data, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&chain, "chain", false, "show the full chain of thought instead of the final plan")
	return cmd
}
