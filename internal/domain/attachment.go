package domain

import "time"

// AttachmentReference is the opaque handle an issue may carry for an
// uploaded file. The core never touches file contents; storage is an
// external collaborator.
type AttachmentReference struct {
	ID         string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	UploadedBy string
	CreatedAt  time.Time
}
