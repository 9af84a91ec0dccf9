package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/todmy/reasoning-engine/internal/reasoning"
	"github.com/todmy/reasoning-engine/pkg/models"
)

var (
	claim         string
	evidence      []string
	steps         []string
	reasoningType string
	complexity    string
	maxSteps      int
	useExternal   bool
)

// generateCmd runs one generation without the HTTP layer
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and analyze reasoning chains for a claim",
	Example: `  server generate --claim "Remote work increases productivity" \
    --evidence "Reduced commute time allows more focus on work" --type inductive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := newEngine()
		if err != nil {
			return err
		}

		resp, err := engine.GenerateChain(cmd.Context(), reasoning.GenerateRequest{
			Claim:         claim,
			Evidence:      evidence,
			ReasoningType: models.ReasoningType(reasoningType),
			Complexity:    models.Complexity(complexity),
			MaxSteps:      maxSteps,
			UseExternal:   useExternal,
		})
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

// validateCmd scores a user-written chain
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a reasoning chain given as ordered statements",
	Example: `  server validate --claim "Exercise improves mental health" \
    --step "Physical activity releases endorphins" \
    --step "Therefore, exercise improves mental health"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := newEngine()
		if err != nil {
			return err
		}

		result, err := engine.Validate(cmd.Context(), reasoning.ValidateRequest{
			Claim:         claim,
			Steps:         steps,
			Evidence:      evidence,
			ReasoningType: models.ReasoningType(reasoningType),
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	for _, c := range []*cobra.Command{generateCmd, validateCmd} {
		c.Flags().StringVar(&claim, "claim", "", "claim to reason about")
		c.Flags().StringArrayVar(&evidence, "evidence", nil, "evidence statement (repeatable)")
		c.Flags().StringVar(&reasoningType, "type", "deductive", "reasoning type: deductive, inductive or abductive")
		_ = c.MarkFlagRequired("claim")
	}

	generateCmd.Flags().StringVar(&complexity, "complexity", "intermediate", "basic, intermediate, advanced or expert")
	generateCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "maximum steps per chain (0 uses the configured default)")
	generateCmd.Flags().BoolVar(&useExternal, "external", true, "use configured external backends")

	validateCmd.Flags().StringArrayVar(&steps, "step", nil, "reasoning step in order (repeatable)")
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
