// Package textgen wraps the Anthropic SDK behind the narrow text
// generation interface the pipeline needs. Deep-research calls with web
// search enabled can run for minutes, so the underlying HTTP client is
// configured with a much longer timeout than a typical API wrapper.
package textgen

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/procurelabs/vendor-research-cli/internal/resilience"
)

// Client defines the text-generation operations used by the pipeline.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest is our own request type for Generate.
type GenerateRequest struct {
	Model           string
	MaxTokens       int64
	System          string
	Input           string
	Temperature     *float64
	EnableWebSearch bool
	MaxWebSearches  int64
}

// GenerateResponse is our own response type from Generate.
type GenerateResponse struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	Usage      Usage
}

// Usage tracks token and server-side tool consumption.
type Usage struct {
	InputTokens       int64
	OutputTokens      int64
	WebSearchRequests int64
}

// requestTimeout bounds a single generation call. Web-search-backed
// research calls routinely take several minutes.
const requestTimeout = 15 * time.Minute

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
}

// NewClient creates a text-generation client backed by the SDK.
func NewClient(apiKey string) Client {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(requestTimeout),
			option.WithHTTPClient(&http.Client{
				Timeout: requestTimeout,
				Transport: &http.Transport{
					MaxIdleConnsPerHost: 10,
					IdleConnTimeout:     90 * time.Second,
				},
			}),
		),
	}
}

func (c *sdkClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	params := toSDKParams(req)

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}

	return fromSDKMessage(msg), nil
}

// classifyError maps SDK failures onto the pipeline error taxonomy so the
// retry executor can tell a bad credential from a flaky upstream.
func classifyError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		if resilience.AuthHTTPStatus(apiErr.StatusCode) {
			return resilience.NewAuthError(eris.Wrap(err, "textgen: generate"))
		}
		if resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return resilience.NewTransientError(eris.Wrap(err, "textgen: generate"), apiErr.StatusCode)
		}
	}
	return eris.Wrap(err, "textgen: generate")
}

// --- SDK type conversion helpers ---

func toSDKParams(req GenerateRequest) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Input)),
		},
	}

	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	if req.EnableWebSearch {
		tool := sdk.WebSearchTool20250305Param{}
		if req.MaxWebSearches > 0 {
			tool.MaxUses = sdk.Int(req.MaxWebSearches)
		}
		params.Tools = []sdk.ToolUnionParam{{OfWebSearchTool20250305: &tool}}
	}
	return params
}

func fromSDKMessage(msg *sdk.Message) *GenerateResponse {
	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}

	return &GenerateResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Text:       sb.String(),
		StopReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:       msg.Usage.InputTokens,
			OutputTokens:      msg.Usage.OutputTokens,
			WebSearchRequests: msg.Usage.ServerToolUse.WebSearchRequests,
		},
	}
}
