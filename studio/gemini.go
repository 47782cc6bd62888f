package studio

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// aspectRatio is the only shape the product renders. YouTube thumbnails are
// 16:9 regardless of model.
const aspectRatio = "16:9"

// primaryImageSize requests the high-resolution output tier that only the
// primary model supports.
const primaryImageSize = "2K"

// GeminiBackend generates images through the Gemini API. One backend wraps
// one model; the fallback ladder composes several over a shared client.
type GeminiBackend struct {
	client    *genai.Client
	model     string
	imageSize string
}

// NewGeminiClient creates the shared Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiBackend wraps one model. imageSize may be empty for models that
// only support the default output resolution.
func NewGeminiBackend(client *genai.Client, model, imageSize string) *GeminiBackend {
	if client == nil {
		panic("studio: gemini client is required")
	}
	if model == "" {
		panic("studio: gemini model is required")
	}
	return &GeminiBackend{client: client, model: model, imageSize: imageSize}
}

// GeminiBackends builds the standard ladder from configuration: one attempt
// at the primary model at 2K, then two at the cheaper fallback.
func GeminiBackends(cfg Config, client *genai.Client) []BackendPolicy {
	return []BackendPolicy{
		{Backend: NewGeminiBackend(client, cfg.PrimaryModel, primaryImageSize), MaxAttempts: 1, Backoff: cfg.RetryBackoff},
		{Backend: NewGeminiBackend(client, cfg.FallbackModel, ""), MaxAttempts: 2, Backoff: cfg.RetryBackoff},
	}
}

func (b *GeminiBackend) Name() string { return b.model }

func (b *GeminiBackend) Generate(ctx context.Context, prompt string, images []ReferenceImage) ([]byte, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(fullPrompt(prompt)))
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MimeType))
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			HTTPOptions: &genai.HTTPOptions{
				ExtrasRequestProvider: imageConfigExtras(b.imageSize),
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.model, err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("%s: %w", b.model, ErrNoImageReturned)
}

// imageConfigExtras patches generationConfig.imageConfig into the outgoing
// request. The pinned genai release has no typed field for it yet, so the
// request-body hook is the only way to set the aspect ratio and output size.
func imageConfigExtras(imageSize string) genai.ExtrasRequestProvider {
	return func(body map[string]any) map[string]any {
		gc, ok := body["generationConfig"].(map[string]any)
		if !ok {
			gc = map[string]any{}
			body["generationConfig"] = gc
		}
		ic := map[string]any{"aspectRatio": aspectRatio}
		if imageSize != "" {
			ic["imageSize"] = imageSize
		}
		gc["imageConfig"] = ic
		return body
	}
}
