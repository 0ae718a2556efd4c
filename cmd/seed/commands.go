package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"retire-rag/internal/app"
	"retire-rag/internal/dto"
	"retire-rag/pkg/auth"

	"github.com/spf13/cobra"
)

var (
	indexForce bool

	queryAge    int
	queryIncome float64

	planFile string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the semantic index and persist its chunks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Index.Initialize(ctx, indexForce); err != nil {
				return err
			}
			cmd.Printf("Index %s with %d chunks\n", a.Index.State(), a.Index.Snapshot().Len())
			return nil
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Run a question through hybrid retrieval",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userData := map[string]any{}
		if cmd.Flags().Changed("age") {
			userData["age"] = queryAge
		}
		if cmd.Flags().Changed("income") {
			userData["income"] = queryIncome
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			result, err := a.Queries.Query(ctx, args[0], userData)
			if err != nil {
				return err
			}
			cmd.Println(result)
			return nil
		})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a retirement plan from a JSON request file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := os.ReadFile(planFile)
		if err != nil {
			return fmt.Errorf("failed to read plan request: %w", err)
		}
		var in dto.RetirementInput
		if err := json.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("failed to decode plan request: %w", err)
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out, err := a.Plans.CreatePlan(ctx, &in)
			if err != nil {
				return err
			}
			if out.ProfileErr != nil {
				cmd.PrintErrln("warning:", out.ProfileErr)
			}
			encoded, err := json.MarshalIndent(dto.NewPlanResponse(out.Plan, out.ProfileID), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal plan: %w", err)
			}
			cmd.Println(string(encoded))
			return nil
		})
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash suitable for ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		cmd.Println(hash)
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "rebuild even if an index is already loaded")

	queryCmd.Flags().IntVar(&queryAge, "age", 0, "user age used to refine the query")
	queryCmd.Flags().Float64Var(&queryIncome, "income", 0, "user income used to refine the query")

	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "path to a JSON plan request")
	_ = planCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(indexCmd, queryCmd, planCmd, hashPasswordCmd)
}
