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
// This file is responsible for initializing and holding the client objects
// used by the publish stage. Clients are only created for the features the
// configuration enables, so a local run needs no credentials at all.
//
// Logic Flow:
//  1. The `NewCloudServiceClients` function is called at application startup.
//  2. A Storage client, an IAM Credentials client and a BigQuery client are
//     created when their feature is enabled.
//  3. All clients are bundled into a single `ServiceClients` struct, which the
//     publish workflow receives.
package cloud

import (
	"context"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ServiceClients is a struct that acts as a central container for the
// clients that interact with Google Cloud. Nil clients are disabled features.
type ServiceClients struct {
	StorageClient  *storage.Client                   // Client for Google Cloud Storage (GCS).
	BigQueryClient *bigquery.Client                  // Client for Google Cloud BigQuery.
	IAMClient      *credentials.IamCredentialsClient // Client for IAM to sign GCS URLs.
}

// Close releases every created client.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.BigQueryClient != nil {
		_ = c.BigQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NewCloudServiceClients initializes the clients enabled by config.
//
// Inputs:
//   - ctx: The root context.Context for the application.
//   - config: A pointer to the loaded application configuration (`Config`).
//
// Outputs:
//   - *ServiceClients: The clients; an empty struct when nothing is enabled.
//   - error: An error if any of the clients fail to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	var opts []option.ClientOption
	if config.Application.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.Application.CredentialsFile))
	}
	cloud = &ServiceClients{}

	if config.Storage.Enabled {
		cloud.StorageClient, err = storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, err
		}
		if config.Storage.SignerServiceAccountEmail != "" {
			cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx, opts...)
			if err != nil {
				cloud.Close()
				return nil, err
			}
		}
	}

	if config.BigQueryDataSource.Enabled {
		cloud.BigQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId, opts...)
		if err != nil {
			cloud.Close()
			return nil, err
		}
	}
	return cloud, nil
}
