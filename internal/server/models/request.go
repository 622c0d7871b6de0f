package models

// UploadRequest carries the client-supplied attributes of one upload.
// ContentLength is the declared body length; requests without it (or with a
// negative value) are rejected before any store call.
type UploadRequest struct {
	Owner         string `validate:"required"`
	Name          string `validate:"required"`
	ContentType   string
	ContentLength int64  `validate:"gte=0"`
	Description   string
	Role          Role `validate:"required,oneof=standard premium"`
}
