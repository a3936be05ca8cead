package stt

import (
	"context"

	"github.com/yoockh/voicedit/internal/storage"
	"github.com/yoockh/voicedit/internal/utils"
)

// Static returns a fixed transcript for any non-empty audio. Used for local
// runs without upstream credentials.
type Static struct {
	Text string
}

func (s Static) Transcribe(_ context.Context, audio *storage.Object) (string, error) {
	if audio == nil || audio.Size == 0 {
		return "", utils.E(utils.CodeUpstream, "Static.Transcribe", "empty audio", nil)
	}
	return s.Text, nil
}
