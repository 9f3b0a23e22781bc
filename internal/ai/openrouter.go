package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// OpenRouterBrain generates images through OpenRouter's chat completions
// endpoint with the image output modality.
type OpenRouterBrain struct {
	BaseURL string
	APIKey  string
	Model   string
	SiteURL string
	AppName string
	Client  *http.Client
}

type openRouterImageURL struct {
	URL string `json:"url"`
}

type openRouterPart struct {
	Type     string              `json:"type"`
	Text     string              `json:"text,omitempty"`
	ImageURL *openRouterImageURL `json:"image_url,omitempty"`
}

type openRouterMsg struct {
	Role    string           `json:"role"`
	Content []openRouterPart `json:"content"`
}

type openRouterChatReq struct {
	Model      string          `json:"model"`
	Messages   []openRouterMsg `json:"messages"`
	Modalities []string        `json:"modalities"`
	Stream     bool            `json:"stream"`
}

type openRouterChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Images  []struct {
				Type     string             `json:"type"`
				ImageURL openRouterImageURL `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenRouterBrain(baseURL, apiKey, model, siteURL, appName string) *OpenRouterBrain {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterBrain{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		SiteURL: siteURL,
		AppName: appName,
		// image generation is slow
		Client: newHTTPClient(180 * time.Second),
	}
}

func (p *OpenRouterBrain) Generate(ctx context.Context, r Request) (*Response, error) {
	if p.Client == nil {
		return nil, errors.New("openrouter: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, errors.New("openrouter: api key is required")
	}
	model := strings.TrimSpace(p.Model)
	if model == "" {
		return nil, errors.New("openrouter: model is required")
	}

	parts := []openRouterPart{{Type: "text", Text: r.PromptText}}
	for _, a := range r.Attachments {
		u, err := attachmentURL(a)
		if err != nil {
			return nil, fmt.Errorf("openrouter: attachment %s: %w", a.OriginalFileName, err)
		}
		parts = append(parts, openRouterPart{Type: "image_url", ImageURL: &openRouterImageURL{URL: u}})
	}

	role := r.Role
	if role == "" {
		role = RoleUser
	}
	b, err := json.Marshal(openRouterChatReq{
		Model:      model,
		Messages:   []openRouterMsg{{Role: role, Content: parts}},
		Modalities: []string{"image", "text"},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	if p.SiteURL != "" {
		req.Header.Set("HTTP-Referer", p.SiteURL)
	}
	if p.AppName != "" {
		req.Header.Set("X-Title", p.AppName)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("openrouter: %s", msg)
	}

	var decoded openRouterChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, errors.New(decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return nil, errors.New("openrouter: empty response")
	}

	msg := decoded.Choices[0].Message
	out := &Response{ResultText: msg.Content}
	for _, img := range msg.Images {
		out.Attachments = append(out.Attachments, fromImageURL(img.ImageURL.URL))
	}
	return out, nil
}

// attachmentURL renders a request attachment as something an image_url part accepts.
func attachmentURL(a RequestAttachment) (string, error) {
	data := a.Data
	if len(data) == 0 {
		if strings.HasPrefix(a.Path, "http") {
			return a.Path, nil
		}
		if a.Path == "" {
			return "", errors.New("no data")
		}
		b, err := os.ReadFile(a.Path)
		if err != nil {
			return "", err
		}
		data = b
	}
	return "data:" + a.MimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// fromImageURL splits a data URL into mime type and payload. Remote URLs
// are passed through.
func fromImageURL(u string) ResponseAttachment {
	if rest, ok := strings.CutPrefix(u, "data:"); ok {
		if meta, payload, ok := strings.Cut(rest, ","); ok {
			mime, _, _ := strings.Cut(meta, ";")
			return ResponseAttachment{MimeType: mime, FileType: "image", Data: payload}
		}
	}
	return ResponseAttachment{MimeType: "image/png", FileType: "image", Data: u}
}
