package upload

import "io"

// LogoFile is one multipart part as received from the client.
type LogoFile struct {
	Name         string
	DeclaredType string
	Size         int64
	Body         io.Reader
}

type UploadResponse struct {
	URL string `json:"url"`
}
