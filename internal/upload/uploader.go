// Package upload pushes media files to object storage with per-file retry.
// Transient failures back off exponentially; the caller's context cancels the
// whole batch without disturbing files that already made it.
package upload

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/minio/minio-go/v7"
)

const (
	// MaxAttempts is the per-file attempt ceiling.
	MaxAttempts = 3
	// BaseBackoff doubles per retry: 1s, 2s, 4s.
	BaseBackoff = time.Second
)

// ObjectStore is the slice of the storage layer the uploader needs.
type ObjectStore interface {
	SaveImage(ctx context.Context, bucket, objectKey string, data []byte) (string, error)
}

// File is one pending upload.
type File struct {
	Name string
	Data []byte
}

// Result records the outcome of one file in a batch.
type Result struct {
	Name     string
	Key      string
	Attempts int
	Err      error
	// Skipped marks files the batch never started because it was cancelled.
	Skipped bool
}

// Uploader retries uploads against an ObjectStore.
type Uploader struct {
	store   ObjectStore
	bucket  string
	maxTry  int
	backoff time.Duration

	// sleep is swappable so tests can assert backoff timing without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(store ObjectStore, bucket string) *Uploader {
	return &Uploader{
		store:   store,
		bucket:  bucket,
		maxTry:  MaxAttempts,
		backoff: BaseBackoff,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// UploadAll pushes the files in order. Cancelling ctx stops further retries
// of the in-flight file and skips every file not yet started; results for
// completed files are preserved.
func (u *Uploader) UploadAll(ctx context.Context, files []File) []Result {
	results := make([]Result, 0, len(files))
	for i, f := range files {
		if ctx.Err() != nil {
			for _, rest := range files[i:] {
				results = append(results, Result{Name: rest.Name, Err: ctx.Err(), Skipped: true})
			}
			break
		}
		results = append(results, u.uploadOne(ctx, f))
	}
	return results
}

func (u *Uploader) uploadOne(ctx context.Context, f File) Result {
	res := Result{Name: f.Name}
	delay := u.backoff
	for attempt := 1; attempt <= u.maxTry; attempt++ {
		res.Attempts = attempt
		key, err := u.store.SaveImage(ctx, u.bucket, f.Name, f.Data)
		if err == nil {
			res.Key = key
			res.Err = nil
			return res
		}
		res.Err = err
		if !Retryable(err) || attempt == u.maxTry {
			return res
		}
		if err := u.sleep(ctx, delay); err != nil {
			res.Err = err
			return res
		}
		delay *= 2
	}
	return res
}

// Retryable classifies an upload error: network transport failures and
// 5xx/408/429 responses are worth retrying, authorization and not-found
// responses are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch {
		case resp.StatusCode == 408, resp.StatusCode == 429:
			return true
		case resp.StatusCode >= 500:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
