package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/todmy/reasoning-engine/pkg/models"
)

const fallacyConfidence = 0.7

type fallacyPattern struct {
	fallacy  models.FallacyType
	patterns []*regexp.Regexp
}

// Table order is the order records are reported in.
var fallacyTable = []fallacyPattern{
	{models.AdHominem, compileAll(
		`\b(you|they)\s+(are|is)\s+(stupid|wrong|biased|incompetent)`,
		`\b(attack|dismiss|ignore)\s+the\s+(person|individual|source)`,
	)},
	{models.StrawMan, compileAll(
		`\b(claims?|says?|argues?)\s+that\s+.{20,}\s+(but|however)\s+that's\s+not`,
		`\b(distort|misrepresent|exaggerate)\s+.{10,}\s+(position|argument)`,
	)},
	{models.FalseDichotomy, compileAll(
		`\b(either|only|must)\s+.{10,}\s+(or|otherwise)`,
		`\b(no\s+other|only\s+two)\s+(option|choice|way)`,
	)},
	{models.SlipperySlope, compileAll(
		`\b(will|would|could)\s+(inevitably|eventually|ultimately)\s+lead\s+to`,
		`\bif\s+we\s+(allow|permit|accept)\s+.{5,}\s+(then|soon|next)\b`,
	)},
	{models.AppealToAuthority, compileAll(
		`\b(experts?|scientists|doctors|authorities)\s+(say|says|agree|agrees|claim|claims)\b`,
		`\baccording\s+to\s+(the\s+)?(famous|renowned|leading|top)\b`,
	)},
	{models.CircularReasoning, compileAll(
		`\bbecause\s+.{10,}\s+because\b`,
		`\b(prove|show|demonstrate)\s+.{10,}\s+by\s+assuming`,
	)},
	{models.HastyGeneralization, compileAll(
		`\b(all|every|always|never)\s+.{10,}\s+(are|is|do|does)`,
		`\b(one|few|some)\s+.{10,}\s+(therefore|so)\s+(all|every)`,
	)},
	{models.FalseCause, compileAll(
		`\bcorrelat\w*\s+.{3,}\s+caus\w*`,
		`\b(after|since)\s+.{5,}\s+(therefore|so)\s+.{0,40}\bcaused\b`,
	)},
	{models.AppealToEmotion, compileAll(
		`\b(think\s+of\s+the\s+children|heartbreaking|terrifying|shameful)\b`,
		`\bimagine\s+how\s+(you|they)\s+would\s+feel\b`,
	)},
	{models.Bandwagon, compileAll(
		`\b(everyone|everybody|most\s+people)\s+(knows?|agrees?|believes?|thinks?)\b`,
		`\b(popular|widely\s+accepted|common)\s+(opinion|belief|view)\b`,
	)},
}

var fallacyDescriptions = map[models.FallacyType]string{
	models.AdHominem:           "Attacking the person making the argument rather than the argument itself",
	models.StrawMan:            "Misrepresenting someone's argument to make it easier to attack",
	models.FalseDichotomy:      "Presenting only two options when more exist",
	models.SlipperySlope:       "Claiming one step will inevitably trigger a chain of extreme consequences",
	models.AppealToAuthority:   "Treating an authority's opinion as proof without supporting evidence",
	models.CircularReasoning:   "Using the conclusion as part of the premise",
	models.HastyGeneralization: "Making broad generalizations from limited examples",
	models.FalseCause:          "Assuming that correlation or sequence implies causation",
	models.AppealToEmotion:     "Substituting emotional manipulation for a valid argument",
	models.Bandwagon:           "Arguing that something is true because many people believe it",
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return out
}

// FallacyDescription returns the static description for a fallacy type
func FallacyDescription(t models.FallacyType) string {
	if d, ok := fallacyDescriptions[t]; ok {
		return d
	}
	return "Unknown fallacy"
}

// DetectFallacies scans the space-joined step texts against the pattern table.
// Every match is reported; spans are in characters, not bytes.
func DetectFallacies(chain models.ReasoningChain) []models.FallacyRecord {
	texts := make([]string, len(chain.Steps))
	for i, step := range chain.Steps {
		texts[i] = step.Text
	}
	return DetectFallaciesInText(strings.Join(texts, " "))
}

// DetectFallaciesInText runs the pattern table over arbitrary text
func DetectFallaciesInText(text string) []models.FallacyRecord {
	records := []models.FallacyRecord{}
	if text == "" {
		return records
	}

	for _, entry := range fallacyTable {
		for _, re := range entry.patterns {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				start := utf8.RuneCountInString(text[:loc[0]])
				end := start + utf8.RuneCountInString(text[loc[0]:loc[1]])
				records = append(records, models.FallacyRecord{
					Type:        entry.fallacy,
					Description: FallacyDescription(entry.fallacy),
					Confidence:  fallacyConfidence,
					Location:    &models.Span{Start: start, End: end},
					TextExcerpt: text[loc[0]:loc[1]],
				})
			}
		}
	}

	return records
}
