package creator

import "errors"

var (
	// ErrBusy: a request is already in flight for this view.
	ErrBusy = errors.New("generation already in progress")
	// ErrEmptyPrompt and ErrNoBackend abort a submit before anything is sent.
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrNoBackend   = errors.New("no image generation backend selected")

	ErrNotImage       = errors.New("file is not an image")
	ErrViewClosed     = errors.New("view is closed")
	ErrNoSuchCreation = errors.New("creation not found")
)
