// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with Google Cloud services.
// This file implements a decorator around the GCS client that throttles
// uploads and retries the ones that fail with a transient error.
//
// Structs:
//   - QuotaAwareUploader: Rate limited object writer.
//
// Functions:
//   - NewQuotaAwareUploader: A constructor for the uploader.
//   - Upload: Copies a local file into a bucket.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

// ObjectWriterFactory opens a writer for an object. *storage.Client is
// adapted to it by StorageWriterFactory; tests provide in-memory versions.
type ObjectWriterFactory func(ctx context.Context, object GCSObject) io.WriteCloser

// StorageWriterFactory writes objects with the given GCS client.
func StorageWriterFactory(client *storage.Client) ObjectWriterFactory {
	return func(ctx context.Context, object GCSObject) io.WriteCloser {
		w := client.Bucket(object.Bucket).Object(object.Name).NewWriter(ctx)
		w.ContentType = object.MIMEType
		return w
	}
}

// QuotaAwareUploader throttles uploads to a fixed rate and retries transient
// failures.
type QuotaAwareUploader struct {
	newWriter  ObjectWriterFactory
	RateLimit  *rate.Limiter
	MaxRetries int
	RetryDelay time.Duration
}

// NewQuotaAwareUploader returns an uploader allowing uploadsPerSecond
// uploads, with bursts of up to burst uploads.
//
// Inputs:
//   - newWriter: Opens the destination writer of each object.
//   - uploadsPerSecond: The sustained upload rate.
//   - burst: The number of uploads allowed back to back.
//
// Outputs:
//   - *QuotaAwareUploader: A pointer to the newly created uploader.
func NewQuotaAwareUploader(newWriter ObjectWriterFactory, uploadsPerSecond float64, burst int) *QuotaAwareUploader {
	return &QuotaAwareUploader{
		newWriter:  newWriter,
		RateLimit:  rate.NewLimiter(rate.Limit(uploadsPerSecond), burst),
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Upload copies the local file into object, waiting for the rate limiter
// before every attempt. Only transient GCS errors are retried; a missing
// local file or a rejected request fails on the first attempt.
func (q *QuotaAwareUploader) Upload(ctx context.Context, fileName string, object GCSObject) error {
	for attempt := 0; ; attempt++ {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return err
		}
		err := q.upload(ctx, fileName, object)
		switch {
		case err == nil:
			return nil
		case !IsTransient(err):
			return fmt.Errorf("failed to upload %s: %w", fileName, err)
		case attempt == q.MaxRetries:
			return fmt.Errorf("failed to upload %s after %d retries: %w", fileName, q.MaxRetries, err)
		}
		slog.Warn("retrying upload", "object", object.Name, "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(q.RetryDelay * time.Duration(attempt+1)):
		}
	}
}

// IsTransient reports whether err is a GCS response worth retrying:
// request timeout, rate limiting or a server error.
func IsTransient(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusRequestTimeout || apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}

func (q *QuotaAwareUploader) upload(ctx context.Context, fileName string, object GCSObject) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	w := q.newWriter(ctx, object)
	if _, err = io.Copy(w, file); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
