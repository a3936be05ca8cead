package services

import (
	"context"
	"time"

	"github.com/yoockh/voicedit/internal/metrics"
	"github.com/yoockh/voicedit/internal/models"
	"github.com/yoockh/voicedit/internal/providers/stt"
	"github.com/yoockh/voicedit/internal/storage"
	"github.com/yoockh/voicedit/internal/utils"
)

// TextTransformer is the text transformation capability used by the pipeline.
type TextTransformer interface {
	Correct(ctx context.Context, raw string) (string, error)
	ApplyCommands(ctx context.Context, target, commands string) (string, error)
}

type RecognitionService interface {
	// Recognise transcribes blob; with smart set the transcript is corrected.
	Recognise(ctx context.Context, blob models.AudioBlob, smart bool) (string, error)
	// Edit applies the spoken commands in blob to text.
	Edit(ctx context.Context, blob models.AudioBlob, text string) (string, error)
}

type recognitionService struct {
	stager      storage.Stager
	transcriber stt.Provider
	transformer TextTransformer
	metrics     *metrics.Metrics
}

func NewRecognitionService(stager storage.Stager, transcriber stt.Provider, transformer TextTransformer, m *metrics.Metrics) RecognitionService {
	return &recognitionService{
		stager:      stager,
		transcriber: transcriber,
		transformer: transformer,
		metrics:     m,
	}
}

func (s *recognitionService) Recognise(ctx context.Context, blob models.AudioBlob, smart bool) (string, error) {
	const op = "RecognitionService.Recognise"

	var out string
	err := s.withAudio(ctx, blob, func(obj *storage.Object) error {
		text, err := s.transcribe(ctx, obj)
		if err != nil {
			return err
		}
		if smart {
			text, err = s.correct(ctx, text)
			if err != nil {
				return err
			}
		}
		out = text
		return nil
	})
	if err != nil {
		return "", utils.E(utils.CodeOperation, op, "recognition failed", err)
	}
	return out, nil
}

func (s *recognitionService) Edit(ctx context.Context, blob models.AudioBlob, text string) (string, error) {
	const op = "RecognitionService.Edit"

	var out string
	err := s.withAudio(ctx, blob, func(obj *storage.Object) error {
		// the command transcript is used as-is, never corrected
		commands, err := s.transcribe(ctx, obj)
		if err != nil {
			return err
		}
		edited, err := s.applyCommands(ctx, text, commands)
		if err != nil {
			return err
		}
		out = edited
		return nil
	})
	if err != nil {
		return "", utils.E(utils.CodeOperation, op, "editing failed", err)
	}
	return out, nil
}

func (s *recognitionService) withAudio(ctx context.Context, blob models.AudioBlob, fn func(*storage.Object) error) error {
	return storage.WithObject(ctx, s.stager, blob, func(obj *storage.Object) error {
		s.metrics.TempObjectStaged()
		defer s.metrics.TempObjectReleased()
		return fn(obj)
	})
}

func (s *recognitionService) transcribe(ctx context.Context, obj *storage.Object) (string, error) {
	start := time.Now()
	text, err := s.transcriber.Transcribe(ctx, obj)
	s.metrics.ObserveUpstream("stt", start, err)
	return text, err
}

func (s *recognitionService) correct(ctx context.Context, raw string) (string, error) {
	start := time.Now()
	text, err := s.transformer.Correct(ctx, raw)
	s.metrics.ObserveUpstream("llm", start, err)
	return text, err
}

func (s *recognitionService) applyCommands(ctx context.Context, target, commands string) (string, error) {
	start := time.Now()
	text, err := s.transformer.ApplyCommands(ctx, target, commands)
	s.metrics.ObserveUpstream("llm", start, err)
	return text, err
}
