package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// OllamaBrain sends the prompt and input images to a local multimodal model.
// It only ever answers with text.
type OllamaBrain struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewOllamaBrain(baseURL, model string) *OllamaBrain {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llava:latest"
	}
	return &OllamaBrain{
		BaseURL: baseURL,
		Model:   model,
		Client:  newHTTPClient(90 * time.Second),
	}
}

type ollamaGenerateReq struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

type ollamaGenerateResp struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (p *OllamaBrain) Generate(ctx context.Context, r Request) (*Response, error) {
	if p.Client == nil {
		return nil, errors.New("ollama: http client is nil")
	}

	images := make([]string, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		data := a.Data
		if len(data) == 0 && a.Path != "" {
			b, err := os.ReadFile(a.Path)
			if err != nil {
				return nil, fmt.Errorf("ollama: attachment %s: %w", a.OriginalFileName, err)
			}
			data = b
		}
		images = append(images, base64.StdEncoding.EncodeToString(data))
	}

	b, err := json.Marshal(ollamaGenerateReq{
		Model:  p.Model,
		Prompt: r.PromptText,
		Images: images,
		Stream: false,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/generate", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama: status %d", resp.StatusCode)
	}

	var decoded ollamaGenerateResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if decoded.Error != "" {
		return nil, errors.New(decoded.Error)
	}
	return &Response{ResultText: decoded.Response}, nil
}
