package creator

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/ai"
	"github.com/suPer8Hu/image-creator/internal/logging"
	"github.com/suPer8Hu/image-creator/internal/metrics"
)

// FileInput is a file offered by drag-drop or the file picker.
type FileInput struct {
	Name     string
	MimeType string // declared type; may be empty
	Data     []byte
}

// StagedFile is an accepted file waiting for the next submit.
type StagedFile struct {
	ID        string
	Name      string
	MimeType  string
	Size      int64
	SizeLabel string
	Preview   *Preview
	Data      []byte
}

// StagedInfo is the public view of a StagedFile.
type StagedInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SizeLabel    string `json:"sizeLabel"`
	PreviewToken string `json:"previewToken"`
}

func (f *StagedFile) info() StagedInfo {
	return StagedInfo{ID: f.ID, Name: f.Name, SizeLabel: f.SizeLabel, PreviewToken: f.Preview.Token}
}

func (f *StagedFile) requestAttachment() ai.RequestAttachment {
	return ai.RequestAttachment{
		Data:             f.Data,
		MimeType:         f.MimeType,
		Size:             f.Size,
		OriginalFileName: f.Name,
	}
}

// Staging is the ordered list of files attached to one open view. Every
// path that drops a file releases its preview.
type Staging struct {
	previews *Previews
	ids      IDGenerator
	log      *zap.Logger
	metrics  *metrics.Metrics
	changed  *broadcast

	mu     sync.Mutex
	files  []*StagedFile
	closed bool
}

func NewStaging(previews *Previews, ids IDGenerator, log *zap.Logger, m *metrics.Metrics) *Staging {
	return &Staging{previews: previews, ids: ids, log: logging.OrNop(log), metrics: m}
}

// imageType returns the file's image mime type. The declared type decides
// when present; otherwise the content is sniffed.
func imageType(f FileInput) (string, bool) {
	declared := strings.ToLower(strings.TrimSpace(f.MimeType))
	if declared != "" && declared != "application/octet-stream" {
		return declared, strings.HasPrefix(declared, "image/")
	}
	detected := mimetype.Detect(f.Data).String()
	return detected, strings.HasPrefix(detected, "image/")
}

// Attach stages f. Non-image files are logged and rejected with ErrNotImage.
func (s *Staging) Attach(f FileInput) (StagedInfo, error) {
	mime, ok := imageType(f)
	if !ok {
		s.metrics.Staged(false)
		s.log.Info("rejected non-image file", zap.String("name", f.Name), zap.String("mime", mime))
		return StagedInfo{}, fmt.Errorf("%w: %s (%s)", ErrNotImage, f.Name, mime)
	}

	staged := &StagedFile{
		ID:        s.ids.Next(),
		Name:      f.Name,
		MimeType:  mime,
		Size:      int64(len(f.Data)),
		SizeLabel: humanize.Bytes(uint64(len(f.Data))),
		Data:      f.Data,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return StagedInfo{}, ErrViewClosed
	}
	staged.Preview = s.previews.Create(f.Data, mime)
	s.files = append(s.files, staged)
	s.mu.Unlock()

	s.metrics.Staged(true)
	s.changed.Notify()
	return staged.info(), nil
}

// AttachMany stages files in order, skipping the ones Attach rejects, and
// returns what was staged.
func (s *Staging) AttachMany(files []FileInput) []StagedInfo {
	out := make([]StagedInfo, 0, len(files))
	for _, f := range files {
		info, err := s.Attach(f)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	return out
}

// Remove drops one staged file. Unknown ids are ignored.
func (s *Staging) Remove(id string) {
	s.mu.Lock()
	i := slices.IndexFunc(s.files, func(f *StagedFile) bool { return f.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.files[i].Preview.Release()
	s.files = slices.Delete(s.files, i, i+1)
	s.mu.Unlock()
	s.changed.Notify()
}

// Clear drops every staged file.
func (s *Staging) Clear() {
	s.take()
}

// take empties the list and returns what was in it, previews released.
func (s *Staging) take() []*StagedFile {
	s.mu.Lock()
	files := s.files
	s.files = nil
	s.mu.Unlock()
	for _, f := range files {
		f.Preview.Release()
	}
	if len(files) > 0 {
		s.changed.Notify()
	}
	return files
}

func (s *Staging) List() []StagedInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StagedInfo, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f.info())
	}
	return out
}

func (s *Staging) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Close clears the list and refuses further attaches.
func (s *Staging) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.take()
}
