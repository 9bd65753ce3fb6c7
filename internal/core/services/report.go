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

// Package services contains the business logic of the viewing-history pipeline.
// This file, `report.go`, defines the ReportService, which manages the cloud
// side of a published report: the BigQuery summary tables and time-limited
// download URLs for objects stored in Google Cloud Storage (GCS).
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"google.golang.org/api/googleapi"
)

// ReportService groups the clients and names used to publish a report.
type ReportService struct {
	BigqueryClient *bigquery.Client                  // Client for the summary tables.
	IAMClient      *credentials.IamCredentialsClient // Signs URLs on behalf of SignerEmail.
	SignerEmail    string                            // Service account used to sign URLs.
	DatasetName    string                            // BigQuery dataset (e.g. "viewing_ds").
	MovieTable     string                            // Table receiving MovieSummaryRow values.
	SeriesTable    string                            // Table receiving SeriesSummaryRow values.
}

// GetFQN returns the queryable name of a table, e.g. `project.viewing_ds.series_info`.
func (s *ReportService) GetFQN(table string) string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(table).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// EnsureTables creates the movie and series tables when they do not exist,
// with schemas inferred from the row types.
func (s *ReportService) EnsureTables(ctx context.Context) error {
	tables := map[string]interface{}{
		s.MovieTable:  model.MovieSummaryRow{},
		s.SeriesTable: model.SeriesSummaryRow{},
	}
	for name, row := range tables {
		schema, err := bigquery.InferSchema(row)
		if err != nil {
			return fmt.Errorf("failed to infer schema for %s: %w", name, err)
		}
		table := s.BigqueryClient.Dataset(s.DatasetName).Table(name)
		if _, err := table.Metadata(ctx); err == nil {
			continue
		} else if !isNotFound(err) {
			return fmt.Errorf("failed to read metadata of %s: %w", s.GetFQN(name), err)
		}
		if err := table.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.GetFQN(name), err)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == 404
}

// GenerateSignedURL creates a V4 signed GET URL for an object. The signature
// is produced by the IAM Credentials API, so no private key is needed locally.
//
// Inputs:
//   - ctx: The context for the signing calls.
//   - bucket: The bucket holding the object.
//   - object: The object name.
//   - expires: How long the URL stays valid.
//
// Outputs:
//   - string: The signed URL.
//   - error: An error if signing is not configured or fails.
func (s *ReportService) GenerateSignedURL(ctx context.Context, bucket string, object string, expires time.Duration) (string, error) {
	if s.IAMClient == nil || s.SignerEmail == "" {
		return "", errors.New("url signing is not configured")
	}
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(payload []byte) ([]byte, error) {
			resp, err := s.IAMClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: payload,
			})
			if err != nil {
				return nil, err
			}
			return resp.SignedBlob, nil
		},
	}
	u, err := storage.SignedURL(bucket, object, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).Object(%q).SignedURL: %w", bucket, object, err)
	}
	return u, nil
}
