package models

import (
	"path/filepath"
	"strings"
)

// DefaultAudioExt is used when the uploaded file name carries no extension.
const DefaultAudioExt = ".m4a"

// AudioBlob is an uploaded audio payload. It is owned by the request that
// received it and is never persisted.
type AudioBlob struct {
	Filename string
	Data     []byte
}

// Ext returns the lower-cased extension of the declared file name.
func (b AudioBlob) Ext() string {
	ext := strings.ToLower(filepath.Ext(b.Filename))
	if ext == "" || ext == "." {
		return DefaultAudioExt
	}
	return ext
}
