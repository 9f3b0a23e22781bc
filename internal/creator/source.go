package creator

import (
	"encoding/base64"
	"strings"

	"github.com/suPer8Hu/image-creator/internal/ai"
)

// fallbackDisplayName labels backend files that come without a name.
const fallbackDisplayName = "Image"

// sourceReference renders a backend file as something a viewer can load:
// http(s) URLs as-is, everything else as a base64 data URL.
func sourceReference(a ai.ResponseAttachment) string {
	if a.Raw != nil {
		return dataURL(a.MimeType, base64.StdEncoding.EncodeToString(a.Raw))
	}
	if strings.HasPrefix(a.Data, "http") {
		return a.Data
	}
	return dataURL(a.MimeType, a.Data)
}

func dataURL(mime, b64 string) string {
	return "data:" + mime + ";base64," + b64
}

// toAttachment maps a backend file into a message attachment. The id falls
// back to a fresh one when the backend gives no file name.
func toAttachment(a ai.ResponseAttachment, ids IDGenerator) Attachment {
	id, name := a.FileName, a.FileName
	if id == "" {
		id = ids.Next()
		name = fallbackDisplayName
	}
	return Attachment{
		ID:              id,
		DisplayName:     name,
		MimeType:        a.MimeType,
		SourceReference: sourceReference(a),
	}
}

// promptText is the original prompt, or prompt plus the backend's text when
// no files came back.
func promptText(prompt string, resp *ai.Response) string {
	if len(resp.Attachments) == 0 {
		return prompt + ": \n " + resp.ResultText
	}
	return prompt
}
