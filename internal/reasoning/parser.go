package reasoning

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/todmy/reasoning-engine/internal/analysis"
	"github.com/todmy/reasoning-engine/pkg/models"
)

// DefaultStepConfidence is assigned to every parsed or fallback-generated step
const DefaultStepConfidence = 0.8

var stepLine = regexp.MustCompile(`(?i)Step\s+(\d+):\s*\[([^\]]+)\]\s*-\s*(.+)`)

const (
	headerAssumptions  = "ASSUMPTIONS"
	headerWeaknesses   = "POTENTIAL WEAKNESSES"
	headerRequirements = "EVIDENCE REQUIREMENTS"
	headerCounter      = "COUNTERARGUMENTS"
)

var knownHeaders = []string{headerAssumptions, headerWeaknesses, headerRequirements, headerCounter}

// ParseStructuredResponse turns a backend response into at most one chain.
// A response without step lines yields no chains.
func ParseStructuredResponse(text string, reasoningType models.ReasoningType) []models.ReasoningChain {
	steps := parseStepLines(text)
	if len(steps) == 0 {
		return []models.ReasoningChain{}
	}

	sections := parseSections(text)

	chain := newChain(steps, reasoningType)
	chain.Assumptions = sections[headerAssumptions]
	chain.Weaknesses = sections[headerWeaknesses]
	chain.EvidenceRequirements = sections[headerRequirements]
	chain.Counterarguments = sections[headerCounter]
	chain.EnsureDefaults()

	return []models.ReasoningChain{chain}
}

// newChain numbers steps in order and computes confidence and validity
func newChain(steps []models.ReasoningStep, reasoningType models.ReasoningType) models.ReasoningChain {
	chain := models.NewReasoningChain(steps, reasoningType)
	chain.LogicalValidity = analysis.AssessValidity(chain.Steps, reasoningType)
	return chain
}

func parseStepLines(text string) []models.ReasoningStep {
	var steps []models.ReasoningStep
	for _, line := range strings.Split(text, "\n") {
		m := stepLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		body := strings.TrimSpace(m[3])
		if body == "" {
			continue
		}
		steps = append(steps, models.ReasoningStep{
			Text:         body,
			Confidence:   DefaultStepConfidence,
			Type:         normalizeStepType(m[2]),
			EvidenceUsed: []string{},
		})
	}
	return steps
}

func normalizeStepType(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
}

// parseSections collects the list items under each known header. A section
// runs until the next all-caps header line or the end of text.
func parseSections(text string) map[string][]string {
	out := map[string][]string{}
	current := ""

	for _, raw := range strings.Split(text, "\n") {
		line := cleanHeaderDecoration(raw)
		if line == "" {
			continue
		}

		if header, rest, ok := matchKnownHeader(line); ok {
			current = header
			if item := sectionItem(rest, header); item != "" {
				out[header] = append(out[header], item)
			}
			continue
		}
		if isCapsHeader(line) {
			current = ""
			continue
		}
		if current == "" {
			continue
		}
		if item := sectionItem(line, current); item != "" {
			out[current] = append(out[current], item)
		}
	}

	return out
}

func sectionItem(line, header string) string {
	item, _ := analysis.StripListMarker(line)
	item = strings.TrimSpace(item)
	if item == "" || strings.HasPrefix(strings.ToUpper(item), header) {
		return ""
	}
	return item
}

func cleanHeaderDecoration(line string) string {
	line = strings.TrimSpace(strings.TrimRight(line, "\r"))
	if strings.HasPrefix(line, "#") {
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
	}
	return line
}

// matchKnownHeader matches "HEADER:" case-insensitively, ignoring markdown bold markers
func matchKnownHeader(line string) (header, rest string, ok bool) {
	plain := strings.ReplaceAll(line, "**", "")
	upper := strings.ToUpper(plain)
	for _, h := range knownHeaders {
		if !strings.HasPrefix(upper, h) {
			continue
		}
		after := strings.TrimSpace(plain[len(h):])
		if strings.HasPrefix(after, ":") {
			return h, strings.TrimSpace(after[1:]), true
		}
	}
	return "", "", false
}

// isCapsHeader reports whether line looks like "SOME HEADER:" with optional trailing text
func isCapsHeader(line string) bool {
	plain := strings.ReplaceAll(line, "**", "")
	idx := strings.Index(plain, ":")
	if idx <= 0 {
		return false
	}
	label := plain[:idx]
	if first := []rune(label)[0]; !unicode.IsLetter(first) {
		return false
	}

	hasLetter := false
	for _, r := range label {
		switch {
		case unicode.IsLetter(r):
			if !unicode.IsUpper(r) {
				return false
			}
			hasLetter = true
		case r == ' ' || r == '_' || r == '-' || r == '/' || r == '&':
		default:
			return false
		}
	}
	return hasLetter
}
