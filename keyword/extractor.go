package keyword

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const DefaultTopN = 5

var ErrEmptyVocabulary = errors.New("empty vocabulary; perhaps the documents only contain stop words")

// ScoredPhrase is a candidate phrase and its similarity to its document.
// It is encoded as a two element JSON array: ["phrase", 0.8123].
type ScoredPhrase struct {
	Phrase string
	Score  float64
}

func (p ScoredPhrase) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Phrase, p.Score})
}

func (p *ScoredPhrase) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("scored phrase must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.Phrase); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &p.Score)
}

// Analysis is the result of Extractor.Analyze.
type Analysis struct {
	Keywords     []ScoredPhrase `json:"keywords"`
	KeySentences []ScoredPhrase `json:"key_sentences"`
}

// Extractor ranks n-gram candidates of documents by embedding similarity.
type Extractor struct {
	embedder Embedder
}

func NewExtractor(embedder Embedder) *Extractor {
	return &Extractor{embedder: embedder}
}

// Analyze returns up to topN single-word keywords of text and, for every
// sentence of text, its best 5 to 10 word phrase.
func (e *Extractor) Analyze(ctx context.Context, text string, topN int) (*Analysis, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	text = norm.NFC.String(strings.ReplaceAll(text, "\x00", " "))

	keywords, err := e.Extract(ctx, []string{text}, KeywordRange, topN)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{Keywords: keywords[0], KeySentences: []ScoredPhrase{}}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return analysis, nil
	}

	perSentence, err := e.Extract(ctx, sentences, SentenceRange, 1)
	if errors.Is(err, ErrEmptyVocabulary) {
		return analysis, nil
	}
	if err != nil {
		return nil, err
	}
	for _, items := range perSentence {
		if len(items) > 0 {
			analysis.KeySentences = append(analysis.KeySentences, items[0])
		}
	}
	return analysis, nil
}

// Extract ranks, for each document, the candidates of the shared vocabulary
// that occur in it and returns the topN best. It fails with
// ErrEmptyVocabulary when no document yields any candidate.
func (e *Extractor) Extract(ctx context.Context, docs []string, window NgramRange, topN int) ([][]ScoredPhrase, error) {
	vocab := buildVocabulary(docs, window)
	if len(vocab.terms) == 0 {
		return nil, ErrEmptyVocabulary
	}

	docVectors, err := e.embedder.Embed(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	termVectors, err := e.embedder.Embed(ctx, vocab.terms)
	if err != nil {
		return nil, fmt.Errorf("failed to embed candidates: %w", err)
	}
	if len(docVectors) != len(docs) || len(termVectors) != len(vocab.terms) {
		return nil, fmt.Errorf("embedder returned %d+%d vectors for %d+%d inputs",
			len(docVectors), len(termVectors), len(docs), len(vocab.terms))
	}

	results := make([][]ScoredPhrase, len(docs))
	for i, ids := range vocab.docs {
		scored := make([]ScoredPhrase, 0, len(ids))
		for _, id := range ids {
			scored = append(scored, ScoredPhrase{
				Phrase: vocab.terms[id],
				Score:  round4(cosine(docVectors[i], termVectors[id])),
			})
		}
		sort.SliceStable(scored, func(a, b int) bool {
			if scored[a].Score != scored[b].Score {
				return scored[a].Score > scored[b].Score
			}
			return scored[a].Phrase < scored[b].Phrase
		})
		if len(scored) > topN {
			scored = scored[:topN]
		}
		results[i] = scored
	}
	return results, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
