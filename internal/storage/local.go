package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/yoockh/voicedit/internal/models"
	"github.com/yoockh/voicedit/internal/utils"
)

// LocalStager writes blobs to files under Dir (os.TempDir when empty).
type LocalStager struct {
	Dir string
}

func NewLocalStager(dir string) *LocalStager {
	return &LocalStager{Dir: dir}
}

func (s *LocalStager) Stage(_ context.Context, blob models.AudioBlob) (*Object, error) {
	const op = "LocalStager.Stage"

	dir := s.Dir
	if dir == "" {
		dir = os.TempDir()
	}

	name := uuid.NewString() + blob.Ext()
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, utils.E(utils.CodeStorage, op, "failed to create temp file", err)
	}

	n, werr := f.Write(blob.Data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		return nil, utils.E(utils.CodeStorage, op, "failed to write temp file", errors.Join(werr, cerr))
	}

	return &Object{
		Name: name,
		Path: path,
		Size: int64(n),
		open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
		release: func(context.Context) error {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		},
	}, nil
}
