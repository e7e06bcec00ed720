package dataprep

import (
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

// Tokenizer lower-cases a string column and splits it on whitespace.
type Tokenizer struct {
	InputCol  string
	OutputCol string
}

func (t *Tokenizer) Transform(f *frame.Frame) (*frame.Frame, error) {
	if _, err := pipeline.Require(f, t.InputCol, frame.String); err != nil {
		return nil, err
	}
	vals, nulls, err := f.Strings(t.InputCol)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(vals))
	for i, v := range vals {
		if nulls[i] {
			continue
		}
		out[i] = strings.Fields(strings.ToLower(v))
		if out[i] == nil {
			out[i] = []string{}
		}
	}
	return f.WithTokens(t.OutputCol, out)
}

// EnglishStopWords is the default stop word list.
var EnglishStopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an", "and",
	"any", "are", "as", "at", "be", "because", "been", "before", "being", "below",
	"between", "both", "but", "by", "can", "could", "did", "do", "does", "doing",
	"down", "during", "each", "few", "for", "from", "further", "had", "has", "have",
	"having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
	"i", "if", "in", "into", "is", "it", "its", "itself", "just", "me",
	"more", "most", "my", "myself", "no", "nor", "not", "now", "of", "off",
	"on", "once", "only", "or", "other", "our", "ours", "ourselves", "out", "over",
	"own", "same", "she", "should", "so", "some", "such", "than", "that", "the",
	"their", "theirs", "them", "themselves", "then", "there", "these", "they", "this", "those",
	"through", "to", "too", "under", "until", "up", "very", "was", "we", "were",
	"what", "when", "where", "which", "while", "who", "whom", "why", "will", "with",
	"would", "you", "your", "yours", "yourself", "yourselves",
}

// StopWordsRemover filters stop words out of a tokens column. A nil
// StopWords uses EnglishStopWords.
type StopWordsRemover struct {
	InputCol      string
	OutputCol     string
	StopWords     []string
	CaseSensitive bool
}

func (r *StopWordsRemover) Transform(f *frame.Frame) (*frame.Frame, error) {
	toks, err := f.Tokens(r.InputCol)
	if err != nil {
		return nil, err
	}
	words := r.StopWords
	if words == nil {
		words = EnglishStopWords
	}
	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		if !r.CaseSensitive {
			w = strings.ToLower(w)
		}
		stop[w] = struct{}{}
	}
	out := make([][]string, len(toks))
	for i, row := range toks {
		if row == nil {
			continue
		}
		kept := make([]string, 0, len(row))
		for _, tok := range row {
			key := tok
			if !r.CaseSensitive {
				key = strings.ToLower(tok)
			}
			if _, ok := stop[key]; !ok {
				kept = append(kept, tok)
			}
		}
		out[i] = kept
	}
	return f.WithTokens(r.OutputCol, out)
}

// DefaultNumFeatures is the HashingTF width when none is set.
const DefaultNumFeatures = 1 << 18

// HashingTF maps tokens to term-frequency vectors by hashing each term
// into one of NumFeatures slots.
type HashingTF struct {
	InputCol    string
	OutputCol   string
	NumFeatures int
	// Binary records presence instead of counts.
	Binary bool
}

// Slot returns the vector index for term.
func (h *HashingTF) Slot(term string) int {
	return int(xxhash.Sum64String(term) % uint64(h.width()))
}

func (h *HashingTF) width() int {
	if h.NumFeatures <= 0 {
		return DefaultNumFeatures
	}
	return h.NumFeatures
}

func (h *HashingTF) Transform(f *frame.Frame) (*frame.Frame, error) {
	toks, err := f.Tokens(h.InputCol)
	if err != nil {
		return nil, err
	}
	n := h.width()
	out := make([]*core.Vector, len(toks))
	for i, row := range toks {
		if row == nil {
			continue
		}
		counts := map[int]float64{}
		for _, tok := range row {
			if h.Binary {
				counts[h.Slot(tok)] = 1
			} else {
				counts[h.Slot(tok)]++
			}
		}
		idx := make([]int, 0, len(counts))
		vals := make([]float64, 0, len(counts))
		for k, v := range counts {
			idx = append(idx, k)
			vals = append(vals, v)
		}
		if out[i], err = core.Sparse(n, idx, vals); err != nil {
			return nil, err
		}
	}
	return f.WithVectors(h.OutputCol, nil, out)
}

// IDF rescales term frequencies by log((m+1)/(df+1)) where m is the number
// of documents and df the number containing the term. Terms seen in fewer
// than MinDocFreq documents get weight zero.
type IDF struct {
	InputCol   string
	OutputCol  string
	MinDocFreq int
}

func (d *IDF) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	vecs, err := f.Vectors(d.InputCol)
	if err != nil {
		return nil, err
	}
	var df []float64
	m := 0
	for _, v := range vecs {
		if v == nil {
			continue
		}
		if df == nil {
			df = make([]float64, v.Len())
		}
		if v.Len() != len(df) {
			return nil, errors.Errorf("dataprep: idf input rows differ in length (%d vs %d)", v.Len(), len(df))
		}
		m++
		v.Each(func(j int, x float64) {
			if x != 0 {
				df[j]++
			}
		})
	}
	if m == 0 {
		return nil, errors.Errorf("dataprep: column %q has no documents", d.InputCol)
	}
	weights := make([]float64, len(df))
	for j, c := range df {
		if int(c) >= d.MinDocFreq {
			weights[j] = math.Log((float64(m) + 1) / (c + 1))
		}
	}
	return &IDFModel{inputCol: d.InputCol, outputCol: d.OutputCol, weights: weights}, nil
}

// IDFModel is a fitted IDF.
type IDFModel struct {
	inputCol, outputCol string
	weights             []float64
}

// Weight returns the inverse document frequency of slot j.
func (m *IDFModel) Weight(j int) float64 { return m.weights[j] }

func (m *IDFModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	vecs, err := f.Vectors(m.inputCol)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Vector, len(vecs))
	for i, v := range vecs {
		if v == nil {
			continue
		}
		if v.Len() != len(m.weights) {
			return nil, errors.Errorf("dataprep: idf fitted on %d slots, row %d has %d", len(m.weights), i, v.Len())
		}
		out[i] = v.Map(func(j int, x float64) float64 { return x * m.weights[j] })
	}
	return f.WithVectors(m.outputCol, f.Attrs(m.inputCol), out)
}
