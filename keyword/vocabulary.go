package keyword

import (
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches words of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// NgramRange is an inclusive window of words per candidate phrase.
type NgramRange struct {
	Min int
	Max int
}

var (
	KeywordRange  = NgramRange{Min: 1, Max: 1}
	SentenceRange = NgramRange{Min: 5, Max: 10}
)

func tokenize(doc string) []string {
	return tokenPattern.FindAllString(strings.ToLower(doc), -1)
}

func ngrams(tokens []string, r NgramRange) []string {
	var out []string
	for n := r.Min; n <= r.Max; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// vocabulary holds the sorted candidate phrases of a set of documents and,
// per document, the indices of the candidates it contains.
type vocabulary struct {
	terms []string
	docs  [][]int
}

func buildVocabulary(docs []string, r NgramRange) vocabulary {
	perDoc := make([]map[string]struct{}, len(docs))
	all := map[string]struct{}{}
	for i, doc := range docs {
		perDoc[i] = map[string]struct{}{}
		for _, gram := range ngrams(tokenize(doc), r) {
			perDoc[i][gram] = struct{}{}
			all[gram] = struct{}{}
		}
	}

	terms := make([]string, 0, len(all))
	for term := range all {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	index := make(map[string]int, len(terms))
	for i, term := range terms {
		index[term] = i
	}

	v := vocabulary{terms: terms, docs: make([][]int, len(docs))}
	for i, grams := range perDoc {
		ids := make([]int, 0, len(grams))
		for gram := range grams {
			ids = append(ids, index[gram])
		}
		sort.Ints(ids)
		v.docs[i] = ids
	}
	return v
}
