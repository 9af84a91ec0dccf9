package similarity

import "strings"

// WordOverlap is the number of distinct lower-cased words two texts share
// divided by the distinct word count of the longer one. Empty input scores 0.
func WordOverlap(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)

	longest := len(wa)
	if len(wb) > longest {
		longest = len(wb)
	}
	if longest == 0 {
		return 0
	}

	shared := 0
	for w := range wa {
		if wb[w] {
			shared++
		}
	}
	return float64(shared) / float64(longest)
}

func wordSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = true
	}
	return set
}
