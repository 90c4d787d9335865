package vectorstore

import (
	"context"
	"math"
	"sort"

	"github.com/cockroachdb/errors"
)

// Index stores documents with their embedding vectors.
type Index interface {
	// Name is used as the metrics tag of the index.
	Name() string
	// Add stores the documents, vectors[i] is the embedding of docs[i].
	Add(ctx context.Context, docs []Document, vectors [][]float32) error
	// Search returns up to k documents ordered by descending similarity.
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)
	// Len returns the number of stored documents.
	Len(ctx context.Context) (int, error)
	// Contains reports if a document with the content hash is stored.
	Contains(ctx context.Context, hash uint64) (bool, error)
}

// Entry is a stored document with its embedding.
type Entry struct {
	Document Document  `json:"document"`
	Vector   []float32 `json:"vector"`
}

func checkAdd(docs []Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return errors.Newf("documents and vectors count mismatch: %d != %d", len(docs), len(vectors))
	}
	return nil
}

// rank returns the top k entries most similar to vector.
func rank(entries []Entry, vector []float32, k int) ([]Match, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyIndex
	}
	if k <= 0 {
		return nil, errors.Newf("invalid k: %d", k)
	}

	matches := make([]Match, 0, len(entries))
	for i := range entries {
		if len(entries[i].Vector) != len(vector) {
			return nil, errors.Newf("vector dimensions mismatch: %d != %d", len(entries[i].Vector), len(vector))
		}
		matches = append(matches, Match{
			Document: entries[i].Document,
			Score:    cosine(entries[i].Vector, vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
