package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/yoockh/voicedit/internal/models"
	"github.com/yoockh/voicedit/internal/utils"
)

// GCSStager uploads blobs to a Cloud Storage bucket and deletes them on
// release. Staged objects carry a gs:// URI that Google Speech can read directly.
type GCSStager struct {
	client *gcs.Client
	bucket string
	prefix string
}

func NewGCSStager(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSStager, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	c, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStager{client: c, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSStager) Close() error { return s.client.Close() }

func (s *GCSStager) Stage(ctx context.Context, blob models.AudioBlob) (*Object, error) {
	const op = "GCSStager.Stage"

	name := uuid.NewString() + blob.Ext()
	objectName := path.Join(s.prefix, name)
	obj := s.client.Bucket(s.bucket).Object(objectName)

	// DoesNotExist makes the write fail rather than overwrite another request's object.
	w := obj.If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/octet-stream"

	// uploads are finalized on Close, a failed write leaves no object behind
	if _, err := io.Copy(w, bytes.NewReader(blob.Data)); err != nil {
		_ = w.Close()
		return nil, utils.E(utils.CodeStorage, op, "failed to upload temp object", err)
	}
	if err := w.Close(); err != nil {
		return nil, utils.E(utils.CodeStorage, op, "failed to upload temp object", err)
	}

	return &Object{
		Name: name,
		URI:  fmt.Sprintf("gs://%s/%s", s.bucket, objectName),
		Size: int64(len(blob.Data)),
		open: func(ctx context.Context) (io.ReadCloser, error) {
			return obj.NewReader(ctx)
		},
		release: func(ctx context.Context) error {
			if err := obj.Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
				return err
			}
			return nil
		},
	}, nil
}
