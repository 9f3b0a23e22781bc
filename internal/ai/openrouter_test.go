package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterGenerate(t *testing.T) {
	var got openRouterChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"here you go","images":[
			{"type":"image_url","image_url":{"url":"data:image/png;base64,iVBORw0KGgo="}},
			{"type":"image_url","image_url":{"url":"https://cdn.example.com/a.png"}}]}}]}`))
	}))
	defer srv.Close()

	p := NewOpenRouterBrain(srv.URL, "key", "img-model", "", "tests")
	resp, err := p.Generate(context.Background(), Request{
		Role:                   RoleUser,
		PromptText:             "a red cube",
		ExpectedResponseFormat: ResponseBase64,
		Attachments: []RequestAttachment{
			{Data: []byte("abc"), MimeType: "image/jpeg", Size: 3, OriginalFileName: "in.jpg"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "img-model", got.Model)
	assert.Equal(t, []string{"image", "text"}, got.Modalities)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "a red cube", got.Messages[0].Content[0].Text)
	assert.Equal(t, "data:image/jpeg;base64,YWJj", got.Messages[0].Content[1].ImageURL.URL)

	assert.Equal(t, "here you go", resp.ResultText)
	require.Len(t, resp.Attachments, 2)
	assert.Equal(t, ResponseAttachment{MimeType: "image/png", FileType: "image", Data: "iVBORw0KGgo="}, resp.Attachments[0])
	assert.Equal(t, "https://cdn.example.com/a.png", resp.Attachments[1].Data)
	assert.Empty(t, resp.Attachments[0].FileName)
}

func TestOpenRouterErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOpenRouterBrain(srv.URL, "", "m", "", "").Generate(context.Background(), Request{})
	assert.ErrorContains(t, err, "api key is required")

	_, err = NewOpenRouterBrain(srv.URL, "key", "m", "", "").Generate(context.Background(), Request{PromptText: "x"})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestOpenRouterRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	resp, err := NewOpenRouterBrain(srv.URL, "key", "m", "", "").Generate(context.Background(), Request{PromptText: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.ResultText)
	assert.Equal(t, int32(2), calls.Load())
}
