package creator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStaging() (*Staging, *Previews) {
	previews := NewPreviews()
	return NewStaging(previews, &seqIDs{prefix: "f"}, nil, nil), previews
}

func TestStagingRejectsNonImages(t *testing.T) {
	s, previews := newTestStaging()

	_, err := s.Attach(FileInput{Name: "notes.txt", MimeType: "text/plain", Data: []byte("hi")})
	require.ErrorIs(t, err, ErrNotImage)
	assert.Zero(t, s.Len())
	assert.Zero(t, previews.Len())
}

func TestStagingSniffsUndeclaredType(t *testing.T) {
	s, _ := newTestStaging()

	info, err := s.Attach(FileInput{Name: "cat", Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, "cat", info.Name)

	_, err = s.Attach(FileInput{Name: "blob", MimeType: "application/octet-stream", Data: []byte("plain text")})
	require.ErrorIs(t, err, ErrNotImage)
}

func TestStagingAttachManyKeepsImagesInOrder(t *testing.T) {
	s, previews := newTestStaging()

	got := s.AttachMany([]FileInput{
		{Name: "a.png", MimeType: "image/png", Data: pngHeader},
		{Name: "b.pdf", MimeType: "application/pdf", Data: []byte("%PDF")},
		{Name: "c.jpg", MimeType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "a.png", got[0].Name)
	assert.Equal(t, "c.jpg", got[1].Name)
	assert.Equal(t, got, s.List())
	assert.Equal(t, 2, previews.Len())
}

func TestStagingSizeLabel(t *testing.T) {
	s, _ := newTestStaging()

	info, err := s.Attach(FileInput{Name: "big.png", MimeType: "image/png", Data: make([]byte, 2048)})
	require.NoError(t, err)
	assert.Equal(t, "2.0 kB", info.SizeLabel)
}

func TestStagingPreviewLifecycle(t *testing.T) {
	s, previews := newTestStaging()

	a, err := s.Attach(FileInput{Name: "a.png", MimeType: "image/png", Data: pngHeader})
	require.NoError(t, err)
	_, err = s.Attach(FileInput{Name: "b.png", MimeType: "image/png", Data: pngHeader})
	require.NoError(t, err)

	data, mime, ok := previews.Open(a.PreviewToken)
	require.True(t, ok)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", mime)

	s.Remove(a.ID)
	_, _, ok = previews.Open(a.PreviewToken)
	assert.False(t, ok)
	assert.Equal(t, 1, previews.Len())

	s.Remove("unknown")
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Zero(t, previews.Len())
}

func TestStagingClose(t *testing.T) {
	s, previews := newTestStaging()
	_, err := s.Attach(FileInput{Name: "a.png", MimeType: "image/png", Data: pngHeader})
	require.NoError(t, err)

	s.Close()
	assert.Zero(t, previews.Len())

	_, err = s.Attach(FileInput{Name: "b.png", MimeType: "image/png", Data: pngHeader})
	require.ErrorIs(t, err, ErrViewClosed)
	assert.Zero(t, previews.Len())
}

func TestPreviewReleaseIsIdempotent(t *testing.T) {
	previews := NewPreviews()
	p := previews.Create([]byte("x"), "image/png")
	other := previews.Create([]byte("y"), "image/png")

	p.Release()
	p.Release()

	assert.Equal(t, 1, previews.Len())
	_, _, ok := previews.Open(other.Token)
	assert.True(t, ok)
}
