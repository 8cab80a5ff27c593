package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bayramdkmn/notepad-intern/model"
	openai "github.com/sashabaranov/go-openai"
)

const maxSuggestedTags = 5

var listMarker = regexp.MustCompile(`^(?:[-*#]+|\d+[.)])\s*`)

// Embedder turns text into a vector for semantic search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TagSuggester proposes tag names for a note.
type TagSuggester interface {
	SuggestTags(ctx context.Context, title, content string, existing []string) ([]string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
}

type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Timeout        time.Duration
}

// OpenAIProvider implements Embedder, TagSuggester and Summarizer. Every
// provider failure is reported as model.ErrInternal.
type OpenAIProvider struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
	timeout        time.Duration
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	embeddingModel := openai.SmallEmbedding3
	if cfg.EmbeddingModel != "" {
		embeddingModel = openai.EmbeddingModel(cfg.EmbeddingModel)
	}
	chatModel := openai.GPT4oMini
	if cfg.ChatModel != "" {
		chatModel = cfg.ChatModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIProvider{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
		timeout:        timeout,
	}
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: p.embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding provider: %v", model.ErrInternal, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: embedding provider returned no vector", model.ErrInternal)
	}
	return resp.Data[0].Embedding, nil
}

func (p *OpenAIProvider) SuggestTags(ctx context.Context, title, content string, existing []string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Suggest up to %d short tags for the note below. Reply with a comma separated list only.\n"+
			"Already attached: %s\n\nTitle: %s\n\n%s",
		maxSuggestedTags, strings.Join(existing, ", "), title, content,
	)
	reply, err := p.complete(ctx, "You label personal notes with concise topical tags.", prompt)
	if err != nil {
		return nil, err
	}
	return ParseTagList(reply, existing, maxSuggestedTags), nil
}

func (p *OpenAIProvider) Summarize(ctx context.Context, title, content string) (string, error) {
	prompt := fmt.Sprintf("Summarize this note in two or three sentences.\n\nTitle: %s\n\n%s", title, content)
	reply, err := p.complete(ctx, "You write short, faithful summaries of personal notes.", prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (p *OpenAIProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: completion provider returned %d: %s", model.ErrInternal, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: completion provider: %v", model.ErrInternal, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion provider returned no choices", model.ErrInternal)
	}
	return resp.Choices[0].Message.Content, nil
}

// ParseTagList splits a model reply into at most limit distinct tag names,
// dropping names already in existing (case-insensitive).
func ParseTagList(reply string, existing []string, limit int) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		seen[strings.ToLower(name)] = struct{}{}
	}

	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	tags := make([]string, 0, limit)
	for _, field := range fields {
		name := strings.TrimSpace(field)
		name = listMarker.ReplaceAllString(name, "")
		name = strings.Trim(name, "\"'` ")
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, name)
		if len(tags) == limit {
			break
		}
	}
	return tags
}
