package stt

import (
	"context"
	"io"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/yoockh/voicedit/internal/storage"
	"github.com/yoockh/voicedit/internal/utils"
)

type GoogleSpeech struct {
	c *speech.Client

	Language     string
	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
}

func NewGoogleSpeech(ctx context.Context, language, encoding string, sampleRateHz int32, opts ...option.ClientOption) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if language == "" {
		language = "en-US"
	}
	return &GoogleSpeech{
		c:            c,
		Language:     language,
		Encoding:     ParseEncoding(encoding),
		SampleRateHz: sampleRateHz,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// ParseEncoding maps a RecognitionConfig encoding name ("FLAC", "LINEAR16", ...)
// to its enum; unknown names leave detection to the service.
func ParseEncoding(name string) speechpb.RecognitionConfig_AudioEncoding {
	v, ok := speechpb.RecognitionConfig_AudioEncoding_value[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
	return speechpb.RecognitionConfig_AudioEncoding(v)
}

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio *storage.Object) (string, error) {
	const op = "GoogleSpeech.Transcribe"

	if audio == nil || audio.Size == 0 {
		return "", utils.E(utils.CodeUpstream, op, "empty audio", nil)
	}

	src, err := g.audioSource(ctx, audio)
	if err != nil {
		return "", utils.E(utils.CodeUpstream, op, "failed to read audio", err)
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               g.Language,
			EnableAutomaticPunctuation: true,
		},
		Audio: src,
	})
	if err != nil {
		return "", utils.E(utils.CodeUpstream, op, "recognize request failed", err)
	}

	// each result covers a consecutive stretch of audio
	parts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		var bestText string
		var bestConf float32 = -1
		for _, alt := range r.Alternatives {
			if alt.Transcript != "" && alt.Confidence > bestConf {
				bestText = alt.Transcript
				bestConf = alt.Confidence
			}
		}
		if t := strings.TrimSpace(bestText); t != "" {
			parts = append(parts, t)
		}
	}

	return strings.Join(parts, " "), nil
}

func (g *GoogleSpeech) audioSource(ctx context.Context, audio *storage.Object) (*speechpb.RecognitionAudio, error) {
	if strings.HasPrefix(audio.URI, "gs://") {
		return &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: audio.URI},
		}, nil
	}

	rc, err := audio.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return &speechpb.RecognitionAudio{
		AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
	}, nil
}
