package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Capability is a declared feature of a brain. Only the values below are valid.
type Capability string

const (
	CapabilityImageGeneration Capability = "image_generation"
	CapabilityTextGeneration  Capability = "text_generation"
	CapabilityVision          Capability = "vision"
)

var ErrCapability = errors.New("unknown capability")

func ParseCapability(s string) (Capability, error) {
	switch c := Capability(strings.ToLower(strings.TrimSpace(s))); c {
	case CapabilityImageGeneration, CapabilityTextGeneration, CapabilityVision:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrCapability, s)
}

// ParseCapabilities parses every tag and fails on the first unknown one.
func ParseCapabilities(tags []string) ([]Capability, error) {
	out := make([]Capability, 0, len(tags))
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			continue
		}
		c, err := ParseCapability(t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Brain describes a backend the host knows about. It is also the value
// persisted as a session's selected backend.
type Brain struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"displayName"`
	Description  string       `json:"description,omitempty"`
	Capabilities []Capability `json:"capabilities"`
}

func (b Brain) Has(c Capability) bool {
	for _, have := range b.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

const RoleUser = "user"

type ResponseFormat string

const (
	ResponseBase64 ResponseFormat = "base64"
	ResponseURL    ResponseFormat = "url"
)

// RequestAttachment carries either a local Path or inline Data.
type RequestAttachment struct {
	Path             string `json:"path,omitempty"`
	Data             []byte `json:"data,omitempty"`
	MimeType         string `json:"mimeType"`
	Size             int64  `json:"size"`
	OriginalFileName string `json:"originalFileName"`
}

type Request struct {
	Role                   string              `json:"role"`
	SentAt                 time.Time           `json:"sentAt"`
	PromptText             string              `json:"promptText"`
	ExpectedResponseFormat ResponseFormat      `json:"expectedResponseFormat"`
	Attachments            []RequestAttachment `json:"attachments,omitempty"`
}

// ResponseAttachment holds a generated file. Data is a URL or a base64
// payload; Raw holds undecoded bytes when the brain returns a buffer.
type ResponseAttachment struct {
	FileName string `json:"fileName,omitempty"`
	MimeType string `json:"mimeType"`
	FileType string `json:"fileType"`
	Data     string `json:"data,omitempty"`
	Raw      []byte `json:"raw,omitempty"`
}

type Response struct {
	ResultText  string               `json:"resultText,omitempty"`
	Attachments []ResponseAttachment `json:"attachments,omitempty"`
}

// Client performs one generation call. Implementations enforce their own
// timeouts; callers do not.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (*Response, error)

func (f ClientFunc) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
