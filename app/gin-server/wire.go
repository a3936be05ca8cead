package main

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/yoockh/voicedit/config"
	"github.com/yoockh/voicedit/internal/api/handlers"
	"github.com/yoockh/voicedit/internal/metrics"
	"github.com/yoockh/voicedit/internal/providers/llm"
	"github.com/yoockh/voicedit/internal/providers/stt"
	"github.com/yoockh/voicedit/internal/ratelimit"
	"github.com/yoockh/voicedit/internal/services"
	"github.com/yoockh/voicedit/internal/storage"
)

type app struct {
	handler *handlers.RecognitionHandler
	limiter *ratelimit.Limiter
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Config, lg *logrus.Logger, m *metrics.Metrics) (*app, error) {
	a := &app{}

	var gopts []option.ClientOption
	if cfg.Google.CredentialsFile != "" {
		gopts = append(gopts, option.WithCredentialsFile(cfg.Google.CredentialsFile))
	}

	oaCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		oaCfg.BaseURL = cfg.OpenAI.BaseURL
	}

	stager, err := buildStager(ctx, cfg.Storage, gopts, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	transcriber, err := buildTranscriber(ctx, cfg.STT, oaCfg, gopts, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	completer, err := buildCompleter(ctx, cfg.LLM, oaCfg, gopts, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	svc := services.NewRecognitionService(stager, transcriber, llm.NewTransformer(completer), m)
	a.handler = handlers.NewRecognitionHandler(svc, lg, cfg.Server.MaxUploadBytes)

	if cfg.RateLimit.Enabled {
		a.limiter = ratelimit.New(cfg.RateLimit.Policy)
	}

	lg.WithFields(logrus.Fields{
		"stt":        cfg.STT.Provider,
		"llm":        cfg.LLM.Provider,
		"storage":    cfg.Storage.Backend,
		"rate_limit": cfg.RateLimit.Enabled,
	}).Info("providers initialised")

	return a, nil
}

func buildStager(ctx context.Context, c config.StorageConfig, gopts []option.ClientOption, a *app) (storage.Stager, error) {
	switch c.Backend {
	case "gcs":
		s, err := storage.NewGCSStager(ctx, c.GCSBucket, c.GCSPrefix, gopts...)
		if err != nil {
			return nil, fmt.Errorf("gcs stager: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	default:
		return storage.NewLocalStager(c.Dir), nil
	}
}

func buildTranscriber(ctx context.Context, c config.STTConfig, oaCfg openai.ClientConfig, gopts []option.ClientOption, a *app) (stt.Provider, error) {
	switch c.Provider {
	case "google":
		g, err := stt.NewGoogleSpeech(ctx, c.Language, c.Encoding, int32(c.SampleRate), gopts...)
		if err != nil {
			return nil, fmt.Errorf("google speech: %w", err)
		}
		a.closers = append(a.closers, g.Close)
		return g, nil
	case "static":
		return stt.Static{Text: c.StaticText}, nil
	default:
		return stt.NewOpenAIWhisper(oaCfg, c.Model, c.Language), nil
	}
}

func buildCompleter(ctx context.Context, c config.LLMConfig, oaCfg openai.ClientConfig, gopts []option.ClientOption, a *app) (llm.Provider, error) {
	switch c.Provider {
	case "vertex":
		v, err := llm.NewVertexGemini(ctx, c.Project, c.Location, c.Model, gopts...)
		if err != nil {
			return nil, fmt.Errorf("vertex gemini: %w", err)
		}
		a.closers = append(a.closers, v.Close)
		return v, nil
	case "echo":
		return llm.Echo{}, nil
	default:
		return llm.NewOpenAIChat(oaCfg, c.Model), nil
	}
}
