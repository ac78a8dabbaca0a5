package ai

import (
	"context"
	"fmt"
	"time"

	"prospector/shared/config"

	"google.golang.org/genai"
)

// systemInstruction pins the model to structured output.
const systemInstruction = "You are a JSON-only response bot."

// Request is a single non-streaming completion call.
type Request struct {
	Prompt      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Reasoner is the external reasoning capability: one prompt in, raw text out.
type Reasoner interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// GeminiReasoner implements Reasoner on the Gemini API.
type GeminiReasoner struct {
	client *genai.Client
}

func NewGeminiReasoner(ctx context.Context, apiKey string) (*GeminiReasoner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiReasoner{client: client}, nil
}

func (g *GeminiReasoner) Complete(ctx context.Context, req Request) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(req.Prompt)}, genai.RoleUser),
	}
	genCfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(req.Temperature),
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, req.Model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with %s: %w", req.Model, err)
	}

	return result.Text(), nil
}

// RequestDefaults are the per-call parameters the scorer sends with every prompt.
type RequestDefaults struct {
	Model       string
	Temperature float32
	Timeout     time.Duration
	MinInterval time.Duration
}

// DefaultsFromConfig maps the ai config section onto request defaults.
func DefaultsFromConfig(cfg config.AIConfig) RequestDefaults {
	return RequestDefaults{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
		MinInterval: cfg.MinInterval,
	}
}
