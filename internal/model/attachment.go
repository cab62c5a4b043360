package model

import "github.com/google/uuid"

// NewAttachment builds an attachment with a fresh high-entropy id. The file
// contents arrive already encoded as a data URI.
func NewAttachment(name, mimeType, dataURL string) Attachment {
	return Attachment{
		ID:      uuid.NewString(),
		Name:    name,
		Type:    mimeType,
		DataURL: dataURL,
	}
}
