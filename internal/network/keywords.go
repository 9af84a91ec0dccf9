package network

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// KeywordExtractor finds the concepts claims are about using TF-IDF
type KeywordExtractor struct {
	stopWords map[string]bool
	minLength int
}

// NewKeywordExtractor creates a new keyword extractor
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{
		stopWords: defaultStopWords(),
		minLength: 3,
	}
}

// Keyword is a term with its TF-IDF score
type Keyword struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

// ExtractKeywords returns the top-k terms that best distinguish texts from one another.
// Ties are broken alphabetically.
func (ke *KeywordExtractor) ExtractKeywords(texts []string, topK int) []Keyword {
	keywords := []Keyword{}
	if len(texts) == 0 {
		return keywords
	}

	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = ke.tokenize(text)
	}

	for word, score := range ke.computeTFIDF(docs) {
		if score > 0 {
			keywords = append(keywords, Keyword{Word: word, Score: score})
		}
	}

	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Score != keywords[j].Score {
			return keywords[i].Score > keywords[j].Score
		}
		return keywords[i].Word < keywords[j].Word
	})

	if topK > 0 && topK < len(keywords) {
		keywords = keywords[:topK]
	}
	return keywords
}

// SharedTerms returns the terms that occur in at least two texts, most
// widespread first, then alphabetically.
func (ke *KeywordExtractor) SharedTerms(texts []string) []string {
	df := ke.documentFrequency(ke.tokenizeAll(texts))

	shared := []string{}
	for word, n := range df {
		if n >= 2 {
			shared = append(shared, word)
		}
	}
	sort.Slice(shared, func(i, j int) bool {
		if df[shared[i]] != df[shared[j]] {
			return df[shared[i]] > df[shared[j]]
		}
		return shared[i] < shared[j]
	})
	return shared
}

func (ke *KeywordExtractor) tokenizeAll(texts []string) [][]string {
	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = ke.tokenize(text)
	}
	return docs
}

func (ke *KeywordExtractor) tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	result := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) >= ke.minLength && !ke.stopWords[word] {
			result = append(result, word)
		}
	}
	return result
}

func (ke *KeywordExtractor) documentFrequency(docs [][]string) map[string]int {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, word := range doc {
			if !seen[word] {
				df[word]++
				seen[word] = true
			}
		}
	}
	return df
}

// computeTFIDF sums length-normalized term frequency times log(N/df) over
// documents and averages by document count.
func (ke *KeywordExtractor) computeTFIDF(docs [][]string) map[string]float64 {
	n := len(docs)
	df := ke.documentFrequency(docs)

	tfidf := make(map[string]float64)
	for _, doc := range docs {
		if len(doc) == 0 {
			continue
		}
		tf := make(map[string]int)
		for _, word := range doc {
			tf[word]++
		}
		for word, count := range tf {
			termFreq := float64(count) / float64(len(doc))
			tfidf[word] += termFreq * math.Log(float64(n)/float64(df[word]))
		}
	}

	for word := range tfidf {
		tfidf[word] /= float64(n)
	}
	return tfidf
}

func defaultStopWords() map[string]bool {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"has", "have", "he", "in", "is", "it", "its", "of", "on", "or",
		"she", "that", "the", "they", "this", "to", "was", "were", "will",
		"with", "you", "your", "we", "our", "their", "them", "there", "these",
		"those", "been", "being", "had", "having", "do", "does", "did", "doing",
		"would", "could", "should", "may", "might", "must", "can", "cannot",
		"about", "above", "after", "again", "against", "all", "am", "any",
		"because", "before", "below", "between", "both", "but", "during",
		"each", "few", "further", "here", "how", "if", "into", "just", "more",
		"most", "no", "nor", "not", "now", "only", "other", "out", "own",
		"same", "so", "some", "such", "than", "then", "through", "too", "under",
		"until", "up", "very", "what", "when", "where", "which", "while", "who",
		"whom", "why", "also", "however", "therefore", "thus", "hence", "yet",
	}

	result := make(map[string]bool, len(words))
	for _, w := range words {
		result[w] = true
	}
	return result
}
