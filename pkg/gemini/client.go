// Package gemini wraps the Gen AI SDK for the two calls the portal makes:
// text generation and prebuilt-voice speech synthesis.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// Speech output format returned by the TTS models
const (
	SampleRate = 24000
	Channels   = 1
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("gemini API key is not configured")

// ErrEmptyResponse is returned when the model produced no usable part
var ErrEmptyResponse = errors.New("gemini returned no content")

// Config holds client configuration. An empty BaseURL uses the public endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client generates content through the Gemini API backend
type Client struct {
	models *genai.Models
}

// NewClient creates a new Gemini client. Without an API key the client is
// returned unconfigured and every call fails with ErrNotConfigured.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if config.APIKey == "" {
		return &Client{}, nil
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      config.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: config.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{models: client.Models}, nil
}

// GenerateText sends a single prompt and returns the text of the first candidate
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	if c.models == nil {
		return "", ErrNotConfigured
	}

	resp, err := c.models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateSpeech synthesizes text with a prebuilt voice and returns base64 raw PCM
// (16-bit, SampleRate Hz, Channels channel)
func (c *Client) GenerateSpeech(ctx context.Context, model, voice, text string) (string, error) {
	if c.models == nil {
		return "", ErrNotConfigured
	}

	resp, err := c.models.GenerateContent(ctx, model, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return base64.StdEncoding.EncodeToString(p.InlineData.Data), nil
			}
		}
	}

	return "", ErrEmptyResponse
}
