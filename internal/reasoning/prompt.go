package reasoning

import (
	"fmt"
	"strings"

	"github.com/todmy/reasoning-engine/pkg/models"
)

// SystemPrompt is sent to backends that accept a system message
const SystemPrompt = "You are an expert logician and critical thinking assistant."

var complexityInstructions = map[models.Complexity]string{
	models.Basic:        "Use simple, clear logical steps that are easy to follow.",
	models.Intermediate: "Include intermediate logical connections and consider alternative perspectives.",
	models.Advanced:     "Analyze complex logical relationships, identify assumptions, and consider multiple reasoning paths.",
	models.Expert:       "Provide sophisticated logical analysis with formal reasoning structures and comprehensive evaluation.",
}

var reasoningInstructions = map[models.ReasoningType]string{
	models.Deductive: "Use deductive reasoning: start with general premises and derive specific conclusions.",
	models.Inductive: "Use inductive reasoning: analyze specific observations to form general conclusions.",
	models.Abductive: "Use abductive reasoning: find the best explanation for the given observations.",
}

// BuildPrompt renders the structured instruction for an external backend.
// The output is a pure function of the arguments.
func BuildPrompt(claim string, evidence []string, reasoningType models.ReasoningType, complexity models.Complexity, maxSteps int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following claim using %s reasoning at %s level:\n\n", reasoningType, complexity)
	fmt.Fprintf(&b, "CLAIM: %s\n\n", claim)
	b.WriteString("EVIDENCE:\n")
	if len(evidence) == 0 {
		b.WriteString("No specific evidence provided\n")
	} else {
		b.WriteString(bulletList(evidence))
	}

	b.WriteString("\nINSTRUCTIONS:\n")
	b.WriteString(reasoningInstructions[reasoningType])
	b.WriteString("\n")
	b.WriteString(complexityInstructions[complexity])
	b.WriteString("\n\n")

	b.WriteString(`Please provide a structured reasoning chain with the following format:

REASONING CHAIN:
Step 1: [PREMISE/INFERENCE/CONCLUSION] - [Explanation]
Step 2: [PREMISE/INFERENCE/CONCLUSION] - [Explanation]
...

ASSUMPTIONS:
- List any key assumptions made

POTENTIAL WEAKNESSES:
- Identify potential logical gaps or weak points

EVIDENCE REQUIREMENTS:
- What additional evidence would strengthen this reasoning?

COUNTERARGUMENTS:
- What are the strongest arguments against this reasoning?

`)
	fmt.Fprintf(&b, "Limit to %d main reasoning steps.\n", maxSteps)

	return b.String()
}

const numberedStepFormat = `
Format your response as numbered steps:
1. [premise/inference/conclusion]: [reasoning step]
2. [premise/inference/conclusion]: [reasoning step]
...
`

// BuildFallbackPrompt renders the simpler per-type template used with the local model
func BuildFallbackPrompt(claim string, evidence []string, reasoningType models.ReasoningType) string {
	var b strings.Builder
	list := bulletList(evidence)

	switch reasoningType {
	case models.Inductive:
		fmt.Fprintf(&b, "Given the following observations:\n%s\n", list)
		fmt.Fprintf(&b, "Using inductive reasoning, provide step-by-step logical reasoning to support the general claim: %q\n", claim)
	case models.Abductive:
		fmt.Fprintf(&b, "Given the following observations:\n%s\n", list)
		fmt.Fprintf(&b, "Using abductive reasoning, provide the best explanation for why %q might be true.\n", claim)
	default:
		fmt.Fprintf(&b, "Given the following evidence:\n%s\n", list)
		fmt.Fprintf(&b, "Using deductive reasoning, provide step-by-step logical reasoning to support or refute the claim: %q\n", claim)
	}
	b.WriteString(numberedStepFormat)

	return b.String()
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return b.String()
}
