// Package index owns vector index construction, persistence, and search.
// The default backend is an exact flat inner-product index persisted to a
// vector file plus a line-delimited metadata file; a Qdrant-backed store
// offers the same search surface for deployments with a running vector
// database.
package index

import (
	"fmt"
	"sort"
)

// Flat is an exact nearest-neighbor structure over inner product. All
// vectors are unit-normalized at embedding time, so inner product equals
// cosine similarity. Rows are kept in insertion order; row i pairs with
// metadata record i.
type Flat struct {
	dim     int
	vectors [][]float32
}

// NewFlat creates an empty flat index with the given dimensionality.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index: invalid dimension %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Add appends vectors as new rows, preserving order.
func (f *Flat) Add(vectors ...[]float32) error {
	for _, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("index: vector dimension %d, want %d", len(v), f.dim)
		}
	}
	f.vectors = append(f.vectors, vectors...)
	return nil
}

// Len returns the number of rows.
func (f *Flat) Len() int { return len(f.vectors) }

// Dimension returns the vector dimensionality.
func (f *Flat) Dimension() int { return f.dim }

// Search returns the top-k rows by inner product with query, scores
// descending. When fewer than k rows exist, the tail is padded with the
// sentinel index -1 so callers can rely on fixed-length results.
func (f *Flat) Search(query []float32, k int) (scores []float32, ids []int, err error) {
	if len(query) != f.dim {
		return nil, nil, fmt.Errorf("index: query dimension %d, want %d", len(query), f.dim)
	}
	if k <= 0 {
		return nil, nil, fmt.Errorf("index: invalid k %d", k)
	}

	all := make([]int, len(f.vectors))
	dots := make([]float32, len(f.vectors))
	for i, v := range f.vectors {
		all[i] = i
		dots[i] = dot(query, v)
	}
	sort.SliceStable(all, func(a, b int) bool {
		return dots[all[a]] > dots[all[b]]
	})

	scores = make([]float32, k)
	ids = make([]int, k)
	for i := 0; i < k; i++ {
		if i < len(all) {
			ids[i] = all[i]
			scores[i] = dots[all[i]]
		} else {
			ids[i] = -1
			scores[i] = 0
		}
	}
	return scores, ids, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
