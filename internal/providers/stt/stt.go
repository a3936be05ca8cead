package stt

import (
	"context"

	"github.com/yoockh/voicedit/internal/storage"
)

// Provider turns a staged audio object into text. Implementations make a
// single upstream call and return a CodeUpstream error on any failure.
type Provider interface {
	Transcribe(ctx context.Context, audio *storage.Object) (string, error)
}
