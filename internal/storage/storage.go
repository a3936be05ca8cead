package storage

import (
	"context"
	"io"
	"sync"

	"github.com/yoockh/voicedit/internal/models"
	"github.com/yoockh/voicedit/internal/utils"
)

// Stager materializes an audio blob to a uniquely named temporary location.
type Stager interface {
	Stage(ctx context.Context, blob models.AudioBlob) (*Object, error)
}

// Object is a staged blob. It must be released exactly once; Release is safe
// to call again and returns the first result.
type Object struct {
	Name string // presented file name, including extension
	Path string // local path, empty for remote objects
	URI  string // remote location (gs://bucket/object), empty for local objects
	Size int64

	open    func(ctx context.Context) (io.ReadCloser, error)
	release func(ctx context.Context) error

	once       sync.Once
	releaseErr error
}

func (o *Object) Open(ctx context.Context) (io.ReadCloser, error) {
	return o.open(ctx)
}

func (o *Object) Release(ctx context.Context) error {
	o.once.Do(func() {
		o.releaseErr = o.release(ctx)
	})
	return o.releaseErr
}

// WithObject stages blob, runs fn with the staged object and releases it on
// every exit path. A release failure is reported only when fn succeeded.
func WithObject(ctx context.Context, s Stager, blob models.AudioBlob, fn func(*Object) error) (err error) {
	const op = "storage.WithObject"

	obj, err := s.Stage(ctx, blob)
	if err != nil {
		return err
	}
	defer func() {
		// release must run even if the request context is already done
		if rerr := obj.Release(context.WithoutCancel(ctx)); rerr != nil && err == nil {
			err = utils.E(utils.CodeStorage, op, "failed to release temp object", rerr)
		}
	}()

	return fn(obj)
}
