package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/image-creator/internal/common"
	"github.com/suPer8Hu/image-creator/internal/creator"
)

// maxUploadBytes caps a single staged file.
const maxUploadBytes = 32 << 20

func (h *Handler) ListCreations(c *gin.Context) {
	common.OK(c, gin.H{"creations": h.WS.Registry().List()})
}

type createCreationReq struct {
	Name string `json:"name"`
}

// CreateCreation creates a creation and opens its view.
func (h *Handler) CreateCreation(c *gin.Context) {
	var req createCreationReq
	_ = c.ShouldBindJSON(&req) // allow empty {}

	s, v, err := h.WS.CreateAndOpen(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	snap := v.Snapshot()
	snap.Session = s
	common.Respond(c, http.StatusCreated, snap)
}

// Name is a pointer so an empty name is accepted while a missing field is not.
type renameReq struct {
	Name *string `json:"name" binding:"required"`
}

// RenameCreation accepts every keystroke; only the last one within the
// debounce window is persisted. Clearing the name is a valid rename.
func (h *Handler) RenameCreation(c *gin.Context) {
	id := c.Param("id")
	var req renameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if _, found := h.WS.Registry().Get(id); !found {
		h.fail(c, creator.ErrNoSuchCreation)
		return
	}
	h.WS.RenameDebounced(id, *req.Name)
	common.Respond(c, http.StatusAccepted, gin.H{"id": id, "name": *req.Name})
}

func (h *Handler) RemoveCreation(c *gin.Context) {
	if err := h.WS.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, nil)
}

func (h *Handler) OpenCreation(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.WS.Open(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.writeSnapshot(c, id)
}

func (h *Handler) CloseCreation(c *gin.Context) {
	h.WS.Close(c.Param("id"))
	common.OK(c, nil)
}

func (h *Handler) GetState(c *gin.Context) {
	h.writeSnapshot(c, c.Param("id"))
}

func (h *Handler) writeSnapshot(c *gin.Context, id string) {
	snap, open := h.WS.Snapshot(id)
	if !open {
		common.Fail(c, http.StatusNotFound, 40402, "creation is not open")
		return
	}
	common.OK(c, snap)
}

type promptReq struct {
	Prompt string `json:"prompt"`
}

func (h *Handler) SetPrompt(c *gin.Context) {
	var req promptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	v, err := h.WS.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	v.SetPrompt(req.Prompt)
	common.OK(c, gin.H{"prompt": req.Prompt})
}

// Attach stages every multipart "files" part. Non-image files are skipped
// and counted.
func (h *Handler) Attach(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10002, "multipart form required")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		common.Fail(c, http.StatusBadRequest, 10003, "no files")
		return
	}

	inputs := make([]creator.FileInput, 0, len(headers))
	for _, fh := range headers {
		in, err := readUpload(fh)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, 10004, err.Error())
			return
		}
		inputs = append(inputs, in)
	}

	v, err := h.WS.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	staged := v.Staging().AttachMany(inputs)
	common.OK(c, gin.H{
		"staged":   staged,
		"rejected": len(inputs) - len(staged),
	})
}

func readUpload(fh *multipart.FileHeader) (creator.FileInput, error) {
	if fh.Size > maxUploadBytes {
		return creator.FileInput{}, fmt.Errorf("%s is too large", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return creator.FileInput{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return creator.FileInput{}, err
	}
	if len(data) > maxUploadBytes {
		return creator.FileInput{}, fmt.Errorf("%s is too large", fh.Filename)
	}
	return creator.FileInput{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

func (h *Handler) RemoveStaged(c *gin.Context) {
	v, open := h.WS.View(c.Param("id"))
	if !open {
		common.Fail(c, http.StatusNotFound, 40402, "creation is not open")
		return
	}
	v.Staging().Remove(c.Param("staged_id"))
	common.OK(c, gin.H{"staged": v.Staging().List()})
}

func (h *Handler) ClearStaged(c *gin.Context) {
	v, open := h.WS.View(c.Param("id"))
	if !open {
		common.Fail(c, http.StatusNotFound, 40402, "creation is not open")
		return
	}
	v.Staging().Clear()
	common.OK(c, gin.H{"staged": v.Staging().List()})
}

// Submit starts a generation and returns before the backend answers.
func (h *Handler) Submit(c *gin.Context) {
	v, err := h.WS.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := v.Submit(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	common.Respond(c, http.StatusAccepted, gin.H{"state": v.State()})
}

// Events streams the view's snapshot over SSE whenever it changes.
func (h *Handler) Events(c *gin.Context) {
	id := c.Param("id")
	v, err := h.WS.Open(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50003, "streaming unsupported")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	writeJSON := func(event string, payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":\"json marshal failed\"}\n\n")
			flusher.Flush()
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, b)
		flusher.Flush()
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		changed := v.Changed()
		snap, open := h.WS.Snapshot(id)
		if !open || v.Closed() {
			writeJSON("closed", gin.H{"id": id})
			return
		}
		writeJSON("state", snap)

	wait:
		for {
			select {
			case <-changed:
				break wait
			case <-ticker.C:
				writeJSON("ping", gin.H{"ts": time.Now().Unix()})
			case <-ctx.Done():
				return
			}
		}
	}
}
