package retrieval

import (
	"sort"
	"strings"
	"unicode"
)

const (
	lexicalLengthScale = float32(10.0)
	maxLexicalScore    = float32(0.4)
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {}, "what": {}, "how": {},
}

// rerank adds a bounded lexical score to each vector score and sorts descending.
// Ties keep store order.
func rerank(query string, docs []Document) []Document {
	queryTokens := filterStopwords(tokenize(query))
	if len(queryTokens) == 0 {
		return docs
	}

	out := make([]Document, len(docs))
	copy(out, docs)
	for i := range out {
		out[i].Score += lexicalScore(queryTokens, out[i].Content)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// lexicalScore is query-term frequency normalized by passage length, capped at maxLexicalScore.
func lexicalScore(queryTokens []string, text string) float32 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	freq := make(map[string]int, len(tokens))
	for _, token := range tokens {
		freq[token]++
	}

	var matches int
	for _, token := range queryTokens {
		matches += freq[token]
	}

	score := (float32(matches) / (1 + float32(len(tokens)))) * lexicalLengthScale
	if score > maxLexicalScore {
		return maxLexicalScore
	}
	return score
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func filterStopwords(tokens []string) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := lexicalStopwords[token]; isStop {
			continue
		}
		result = append(result, token)
	}
	return result
}
