package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// ChatMessage is a single turn sent to the assistant API.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PhotoAnalysis is the structured result of vision categorization.
type PhotoAnalysis struct {
	Category string `json:"category"`
	Caption  string `json:"caption"`
}

// AssistantClient talks to an OpenAI-compatible API for chat completions,
// audio transcription and vision analysis.
type AssistantClient interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
	// Transcribe returns the transcript and the audio duration in seconds.
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, float64, error)
	AnalyzePhoto(ctx context.Context, imageURL string) (*PhotoAnalysis, error)
}

// AssistantModels selects which model serves each capability.
type AssistantModels struct {
	Chat          string
	Vision        string
	Transcription string
}

type assistantClient struct {
	baseURL string
	apiKey  string
	models  AssistantModels
	client  *http.Client
	logger  zerolog.Logger
}

func NewAssistantClient(baseURL, apiKey string, models AssistantModels, logger zerolog.Logger) AssistantClient {
	return &assistantClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		models:  models,
		client: &http.Client{
			// No timeout; rely on context cancellation so long completions
			// are not cut off mid-response.
		},
		logger: logger.With().Str("service", "AssistantClient").Logger(),
	}
}

type completionRequest struct {
	Model          string           `json:"model"`
	Messages       []map[string]any `json:"messages"`
	ResponseFormat map[string]any   `json:"response_format,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *assistantClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	apiMessages := make([]map[string]any, len(messages))
	for i, m := range messages {
		apiMessages[i] = map[string]any{"role": m.Role, "content": m.Content}
	}
	reqBody := completionRequest{Model: c.models.Chat, Messages: apiMessages}

	var resp completionResponse
	if err := c.postJSON(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("assistant returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *assistantClient) AnalyzePhoto(ctx context.Context, imageURL string) (*PhotoAnalysis, error) {
	prompt := "Categorize this baby photo. Respond with JSON: " +
		`{"category": one of "sleeping", "eating", "playing", "milestone", "family", "outdoor", "other", ` +
		`"caption": a short affectionate caption}`
	reqBody := completionRequest{
		Model: c.models.Vision,
		Messages: []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]any{"url": imageURL}},
				},
			},
		},
		ResponseFormat: map[string]any{"type": "json_object"},
	}

	var resp completionResponse
	if err := c.postJSON(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("vision model returned no choices")
	}

	var analysis PhotoAnalysis
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &analysis); err != nil {
		return nil, fmt.Errorf("parsing vision analysis: %w", err)
	}
	return &analysis, nil
}

type transcriptionResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

func (c *assistantClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, float64, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", 0, fmt.Errorf("creating multipart file field: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", 0, fmt.Errorf("copying audio into request: %w", err)
	}
	if err := writer.WriteField("model", c.models.Transcription); err != nil {
		return "", 0, fmt.Errorf("writing model field: %w", err)
	}
	// verbose_json includes the audio duration, needed for usage accounting.
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return "", 0, fmt.Errorf("writing response_format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", 0, fmt.Errorf("closing multipart writer: %w", err)
	}

	url := c.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("making transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, c.apiError(resp)
	}

	var tr transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", 0, fmt.Errorf("decoding transcription response: %w", err)
	}
	return tr.Text, tr.Duration, nil
}

func (c *assistantClient) postJSON(ctx context.Context, path string, reqBody, out any) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("making request to assistant API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding assistant response: %w", err)
	}
	return nil
}

func (c *assistantClient) apiError(resp *http.Response) error {
	bodyBytes, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		c.logger.Warn().Err(readErr).Int("status_code", resp.StatusCode).Msg("Failed to read error body from assistant API")
		return fmt.Errorf("assistant API returned status %d", resp.StatusCode)
	}
	errorMsg := string(bodyBytes)
	c.logger.Error().
		Int("status_code", resp.StatusCode).
		Str("error_body", errorMsg).
		Msg("Assistant API returned error")
	return fmt.Errorf("assistant API returned status %d: %s", resp.StatusCode, errorMsg)
}
