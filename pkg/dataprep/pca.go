package dataprep

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

// PCA projects a vector column onto its top K principal components.
type PCA struct {
	InputCol  string
	OutputCol string
	K         int
}

func (p *PCA) Fit(f *frame.Frame) (pipeline.Transformer, error) {
	vecs, err := f.Vectors(p.InputCol)
	if err != nil {
		return nil, err
	}
	var rows []*core.Vector
	for _, v := range vecs {
		if v != nil {
			rows = append(rows, v)
		}
	}
	if len(rows) < 2 {
		return nil, errors.Errorf("dataprep: pca needs at least 2 rows, got %d", len(rows))
	}
	X, err := core.Rows(rows)
	if err != nil {
		return nil, err
	}
	_, d := X.Dims()
	if p.K < 1 || p.K > d {
		return nil, errors.Errorf("dataprep: pca k=%d outside [1, %d]", p.K, d)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return nil, errors.New("dataprep: principal component analysis failed")
	}
	var vectors mat.Dense
	pc.VectorsTo(&vectors)
	vars := pc.VarsTo(nil)
	if _, c := vectors.Dims(); p.K > c {
		return nil, errors.Errorf("dataprep: pca k=%d exceeds the %d available components", p.K, c)
	}

	means := make([]float64, d)
	for j := range means {
		means[j] = stat.Mean(mat.Col(nil, j, X), nil)
	}
	comps := make([][]float64, p.K)
	for k := range comps {
		comps[k] = mat.Col(nil, k, &vectors)
	}
	return &PCAModel{
		inputCol:   p.InputCol,
		outputCol:  p.OutputCol,
		means:      means,
		components: comps,
		explained:  vars[:p.K],
	}, nil
}

// PCAModel is a fitted PCA.
type PCAModel struct {
	inputCol, outputCol string
	means               []float64
	components          [][]float64 // K unit vectors of length d
	explained           []float64
}

// ExplainedVariance returns the variance captured by each kept component.
func (m *PCAModel) ExplainedVariance() []float64 { return append([]float64(nil), m.explained...) }

// Transform centres each row and projects it onto the components, splitting
// rows across GOMAXPROCS workers.
func (m *PCAModel) Transform(f *frame.Frame) (*frame.Frame, error) {
	vecs, err := f.Vectors(m.inputCol)
	if err != nil {
		return nil, err
	}
	d := len(m.means)
	for i, v := range vecs {
		if v != nil && v.Len() != d {
			return nil, errors.Errorf("dataprep: pca fitted on %d slots, row %d has %d", d, i, v.Len())
		}
	}

	n := len(vecs)
	out := make([]*core.Vector, n)
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, n)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if vecs[i] == nil {
					continue
				}
				x := vecs[i].ToDense()
				t := make([]float64, len(m.components))
				for k, c := range m.components {
					s := 0.0
					for j := range x {
						s += (x[j] - m.means[j]) * c[j]
					}
					t[k] = s
				}
				out[i] = core.Dense(t)
			}
		}(start, end)
	}
	wg.Wait()
	return f.WithVectors(m.outputCol, nil, out)
}
