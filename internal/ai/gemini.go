package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// TextGenerator turns a prompt into plain text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini is a TextGenerator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai: GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("ai: new client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Client exposes the underlying client for the chat assistant.
func (g *Gemini) Client() *genai.Client { return g.client }

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Close() error { return g.client.Close() }

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("ai: generate: %w", err)
	}
	return responseText(resp), nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}
