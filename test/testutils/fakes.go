package testutils

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
)

// FakeEmbedder maps text to a deterministic vector. Vectors can be pinned per
// text through Vectors.
type FakeEmbedder struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Err     error
	Calls   int
}

func (f *FakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	for key, v := range f.Vectors {
		if strings.Contains(text, key) {
			return append([]float32(nil), v...), nil
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum32()
	return []float32{float32(sum%97) + 1, float32(sum%89) + 1, float32(sum%83) + 1}, nil
}

type FakeSuggester struct {
	Tags []string
	Err  error
}

func (f *FakeSuggester) SuggestTags(ctx context.Context, title, content string, existing []string) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]string(nil), f.Tags...), nil
}

type FakeSummarizer struct {
	Summary string
	Err     error
}

func (f *FakeSummarizer) Summarize(ctx context.Context, title, content string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	if f.Summary != "" {
		return f.Summary, nil
	}
	return "summary of " + title, nil
}
