package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/cloudvision/internal/domain/analysis"
	"github.com/bryanwahyu/cloudvision/internal/infra/ai/prompt"
)

const maxTokens = 1024

// Client implements the vision analyzer over chat completions. One image
// is annotated by four independent feature requests against the same
// payload; all four must succeed or the analysis fails as a whole.
type Client struct {
	*openai.Client
	Model string
}

var _ analysis.Analyzer = (*Client)(nil)

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// NewClientWithBaseURL points the client at an alternate endpoint
// (proxies, tests). baseURL includes the version prefix, e.g. ".../v1".
func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

// Annotate runs label, object, text, and face detection against the
// image. Any single feature failure aborts the whole call; no partial
// bundle is ever returned.
func (c *Client) Annotate(ctx context.Context, image []byte) (*analysis.Annotations, error) {
	imageURL := dataURL(image)

	var ann analysis.Annotations

	var labels struct {
		Labels []analysis.Label `json:"labels"`
	}
	if err := c.feature(ctx, imageURL, prompt.GetLabelsPrompt(), &labels); err != nil {
		return nil, fmt.Errorf("label detection: %w", err)
	}
	ann.Labels = labels.Labels

	var objects struct {
		Objects []analysis.Object `json:"objects"`
	}
	if err := c.feature(ctx, imageURL, prompt.GetObjectsPrompt(), &objects); err != nil {
		return nil, fmt.Errorf("object detection: %w", err)
	}
	ann.Objects = objects.Objects

	var text struct {
		Text string `json:"text"`
	}
	if err := c.feature(ctx, imageURL, prompt.GetTextPrompt(), &text); err != nil {
		return nil, fmt.Errorf("text detection: %w", err)
	}
	ann.Text = text.Text

	var faces struct {
		Faces int `json:"faces"`
	}
	if err := c.feature(ctx, imageURL, prompt.GetFacesPrompt(), &faces); err != nil {
		return nil, fmt.Errorf("face detection: %w", err)
	}
	if faces.Faces < 0 {
		faces.Faces = 0
	}
	ann.Faces = faces.Faces

	ann.Truncate()
	return &ann, nil
}

func (c *Client) feature(ctx context.Context, imageURL, userPrompt string, out any) error {
	model := c.Model
	if model == "" {
		model = openai.GPT4o
	}
	req := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: userPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("empty completion response")
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("decode annotation: %w", err)
	}
	return nil
}

// dataURL embeds the image bytes as a base64 data URL for the request.
func dataURL(image []byte) string {
	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}
