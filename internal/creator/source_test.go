package creator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suPer8Hu/image-creator/internal/ai"
)

func TestSourceReference(t *testing.T) {
	tests := []struct {
		name string
		in   ai.ResponseAttachment
		want string
	}{
		{
			name: "url passes through",
			in:   ai.ResponseAttachment{MimeType: "image/png", Data: "https://cdn.example.com/a.png"},
			want: "https://cdn.example.com/a.png",
		},
		{
			name: "base64 becomes data url",
			in:   ai.ResponseAttachment{MimeType: "image/png", Data: "iVBORw0KGgo="},
			want: "data:image/png;base64,iVBORw0KGgo=",
		},
		{
			name: "raw bytes are encoded",
			in:   ai.ResponseAttachment{MimeType: "image/jpeg", Raw: []byte{0xff, 0xd8, 0xff}},
			want: "data:image/jpeg;base64,/9j/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sourceReference(tt.in))
		})
	}
}

func TestToAttachmentWithoutFileName(t *testing.T) {
	got := toAttachment(ai.ResponseAttachment{MimeType: "image/png", Data: "AAAA"}, &seqIDs{prefix: "gen"})

	assert.Equal(t, "gen1", got.ID)
	assert.Equal(t, "Image", got.DisplayName)
	assert.Empty(t, got.SizeLabel)
}

func TestPromptText(t *testing.T) {
	assert.Equal(t, "a red cube: \n done", promptText("a red cube", &ai.Response{ResultText: "done"}))
	assert.Equal(t, "a red cube", promptText("a red cube", &ai.Response{
		ResultText:  "ignored",
		Attachments: []ai.ResponseAttachment{{MimeType: "image/png", Data: "AAAA"}},
	}))
}
