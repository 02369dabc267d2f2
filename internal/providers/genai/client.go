package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"videofactory/internal/infra"
)

// Options controls how the Gemini client is configured.
type Options struct {
	BaseURL     string
	ImageModel  string
	TextModel   string
	SpeechModel string
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

// Client is a thin REST facade over the Gemini generateContent endpoint. It holds
// no credential: every call receives the key chosen by the caller's rotator, so
// one client serves the whole pool.
type Client struct {
	baseURL     string
	imageModel  string
	textModel   string
	speechModel string
	httpClient  *http.Client
	logger      *infra.Logger
}

// APIError is a non-2xx answer from Gemini.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini status %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini status %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus exposes the status code to the credential classifier.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Blob is an inline binary payload returned by the model.
type Blob struct {
	Data     []byte
	MimeType string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
	FileData   *geminiFileData   `json:"fileData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiSpeechConfig struct {
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiGenerationConfig struct {
	CandidateCount     int                 `json:"candidateCount,omitempty"`
	ResponseMimeType   string              `json:"responseMimeType,omitempty"`
	ResponseModalities []string            `json:"responseModalities,omitempty"`
	SpeechConfig       *geminiSpeechConfig `json:"speechConfig,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	return &Client{
		baseURL:     baseURL,
		imageModel:  firstNonEmpty(opts.ImageModel, "gemini-2.0-flash-exp-image-generation"),
		textModel:   firstNonEmpty(opts.TextModel, "gemini-2.0-flash"),
		speechModel: firstNonEmpty(opts.SpeechModel, "gemini-2.5-flash-preview-tts"),
		httpClient:  client,
		logger:      infra.OrNop(opts.Logger),
	}
}

// ImageModel returns the model used for image generation.
func (c *Client) ImageModel() string {
	return c.imageModel
}

// GenerateImage asks the image model for a picture and returns the first inline
// image part.
func (c *Client) GenerateImage(ctx context.Context, apiKey, prompt string) (Blob, error) {
	payload := geminiGenerateContentRequest{
		Contents: userContent(prompt),
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}
	var response geminiGenerateContentResponse
	if err := c.invokeGemini(ctx, apiKey, c.imageModel, payload, &response); err != nil {
		return Blob{}, err
	}
	blob, err := c.firstBlob(ctx, apiKey, response, "image/")
	if err != nil {
		return Blob{}, err
	}
	c.logger.Debug().
		Str("model", c.imageModel).
		Int("bytes", len(blob.Data)).
		Msg("genai: generated image")
	return blob, nil
}

// GenerateText returns the concatenated text parts of the first candidate. With
// jsonOutput the model is asked for an application/json response.
func (c *Client) GenerateText(ctx context.Context, apiKey, prompt string, jsonOutput bool) (string, error) {
	payload := geminiGenerateContentRequest{Contents: userContent(prompt)}
	if jsonOutput {
		payload.GenerationConfig = &geminiGenerationConfig{ResponseMimeType: "application/json"}
	}
	var response geminiGenerateContentResponse
	if err := c.invokeGemini(ctx, apiKey, c.textModel, payload, &response); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
		if b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text content returned%s", blockSuffix(response))
	}
	return b.String(), nil
}

// GenerateSpeech synthesizes text with a prebuilt voice. The model answers with
// raw PCM in the returned blob.
func (c *Client) GenerateSpeech(ctx context.Context, apiKey, text, voice string) (Blob, error) {
	payload := geminiGenerateContentRequest{
		Contents: userContent(text),
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &geminiSpeechConfig{
				VoiceConfig: geminiVoiceConfig{
					PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: voice},
				},
			},
		},
	}
	var response geminiGenerateContentResponse
	if err := c.invokeGemini(ctx, apiKey, c.speechModel, payload, &response); err != nil {
		return Blob{}, err
	}
	return c.firstBlob(ctx, apiKey, response, "audio/")
}

func userContent(text string) []geminiContent {
	return []geminiContent{{
		Role:  "user",
		Parts: []geminiPart{{Text: strings.TrimSpace(text)}},
	}}
}

func (c *Client) firstBlob(ctx context.Context, apiKey string, response geminiGenerateContentResponse, mimePrefix string) (Blob, error) {
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			blob, err := c.decodeInlineAsset(ctx, apiKey, part)
			if err != nil {
				c.logger.Debug().Err(err).Msg("genai: skipping undecodable part")
				continue
			}
			if len(blob.Data) == 0 {
				continue
			}
			if blob.MimeType != "" && !strings.HasPrefix(blob.MimeType, mimePrefix) {
				continue
			}
			return blob, nil
		}
	}
	return Blob{}, fmt.Errorf("no %s content returned%s", strings.TrimSuffix(mimePrefix, "/"), blockSuffix(response))
}

func blockSuffix(response geminiGenerateContentResponse) string {
	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
		return " (blocked: " + response.PromptFeedback.BlockReason + ")"
	}
	for _, candidate := range response.Candidates {
		if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
			return " (finish reason: " + candidate.FinishReason + ")"
		}
	}
	return ""
}

func (c *Client) invokeGemini(ctx context.Context, apiKey, model string, payload any, out any) error {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if apiKey = strings.TrimSpace(apiKey); apiKey != "" {
		q := req.URL.Query()
		q.Set("key", apiKey)
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var parsed geminiErrorResponse
		if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error.Message != "" {
			apiErr.Message = parsed.Error.Message
			apiErr.Status = parsed.Error.Status
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func (c *Client) decodeInlineAsset(ctx context.Context, apiKey string, part geminiPart) (Blob, error) {
	if part.InlineData != nil && part.InlineData.Data != "" {
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			return Blob{}, fmt.Errorf("decode inline data: %w", err)
		}
		return Blob{Data: data, MimeType: part.InlineData.MimeType}, nil
	}

	if part.FileData != nil && part.FileData.FileURI != "" {
		data, mime, err := c.downloadFile(ctx, apiKey, part.FileData.FileURI)
		if err != nil {
			return Blob{}, err
		}
		return Blob{Data: data, MimeType: firstNonEmpty(part.FileData.MimeType, mime)}, nil
	}

	return Blob{}, nil
}

func (c *Client) downloadFile(ctx context.Context, apiKey, uri string) ([]byte, string, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	if apiKey != "" {
		q := req.URL.Query()
		q.Set("key", apiKey)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, "", &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
