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

// Package cloud provides utility functions for the application's configuration.
// This file implements the hierarchical loader: a base `.env.toml` file is
// decoded first and a runtime-specific `.env.<runtime>.toml` file is decoded on
// top of it, so only the overridden keys need to appear in the second file.
package cloud

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileBaseName  = ".env"             // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"            // The file extension for configuration files.
	ConfigSeparator     = "."                // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "VI_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "VI_RUNTIME"       // The environment variable for specifying the runtime (e.g., "local", "test").
	DefaultRuntime      = "local"            // Runtime used when EnvConfigRuntime is unset.
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime configuration file names derived
// from the environment.
func ConfigFiles() (base string, runtime string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	env := os.Getenv(EnvConfigRuntime)
	if env == "" {
		env = DefaultRuntime
	}
	base = filepath.Join(prefix, ConfigFileBaseName+ConfigFileExtension)
	runtime = filepath.Join(prefix, ConfigFileBaseName+ConfigSeparator+env+ConfigFileExtension)
	return base, runtime
}

// LoadConfig decodes the base and runtime configuration files into
// baseConfig. Missing files are skipped. When baseConfig has a Validate method
// it is called once both files are decoded.
//
// Inputs:
//   - baseConfig: A pointer to the struct to populate, usually from NewConfig.
//
// Outputs:
//   - error: A decode or validation error.
func LoadConfig(baseConfig interface{}) error {
	baseConfigFileName, envConfigFileName := ConfigFiles()
	for _, name := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(name) {
			slog.Debug("configuration file not found, skipping", "file", name)
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", name, err)
		}
		slog.Debug("loaded configuration file", "file", name)
	}
	if v, ok := baseConfig.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}
