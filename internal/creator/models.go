package creator

import "github.com/suPer8Hu/image-creator/internal/ai"

// DefaultName is given to creations made from the "create" command.
const DefaultName = "New Creation"

// CreationSession is one named image-generation conversation.
type CreationSession struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Message is one completed generation. Messages are never edited.
type Message struct {
	ID          string       `json:"id"`
	PromptText  string       `json:"promptText"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment is a generated file bound to a message.
type Attachment struct {
	ID              string `json:"id"`
	DisplayName     string `json:"displayName"`
	MimeType        string `json:"mimeType"`
	SizeLabel       string `json:"sizeLabel"`
	SourceReference string `json:"sourceReference"`
}

// State is the loading/error affordance of an open view.
type State struct {
	Submitting bool   `json:"submitting"`
	LastError  string `json:"lastError,omitempty"`
}

// Snapshot is everything an open view renders.
type Snapshot struct {
	Session       CreationSession `json:"session"`
	Prompt        string          `json:"prompt"`
	Messages      []Message       `json:"messages"`
	Staged        []StagedInfo    `json:"staged"`
	SelectedBrain *ai.Brain       `json:"selectedBrain,omitempty"`
	State         State           `json:"state"`
}
