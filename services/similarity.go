package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/bayramdkmn/notepad-intern/model"
)

// Candidate is a note offered to the ranker. Empty embeddings are skipped.
type Candidate struct {
	NoteID    string
	Embedding []float32
}

type Ranked struct {
	NoteID     string  `json:"note_id"`
	Similarity float64 `json:"similarity"`
}

// Rank orders candidates by cosine similarity to query, highest first.
// Ties keep input order. Pairs where either vector has zero norm, or the
// dimensions differ, are left out. No candidates at all is ErrNotFound.
func Rank(query []float32, candidates []Candidate) ([]Ranked, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no notes to search", model.ErrNotFound)
	}

	queryNorm := norm(query)
	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) == 0 || len(c.Embedding) != len(query) {
			continue
		}
		score, ok := cosine(query, queryNorm, c.Embedding)
		if !ok {
			continue
		}
		ranked = append(ranked, Ranked{NoteID: c.NoteID, Similarity: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	return ranked, nil
}

func cosine(a []float32, aNorm float64, b []float32) (float64, bool) {
	bNorm := norm(b)
	if aNorm == 0 || bNorm == 0 {
		return 0, false
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm), true
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
