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

// Package cor (Chain of Responsibility) provides the building blocks used to
// compose the pipeline stages as sequences of commands. This file defines
// `BaseContext`, the default implementation of the `Context` interface: a
// property bag passed through the whole chain, plus the errors, warnings and
// temporary files collected while it runs.
package cor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// CommandError ties an error to the command that recorded it.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data      map[string]interface{}
	errors    []error
	warnings  []error
	tempFiles []string
	context   context.Context
}

// NewBaseContext returns an empty context. The caller must set the Go context
// with SetContext before executing a command.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		tempFiles: make([]string, 0),
	}
}

// Get returns the value stored under key when it holds a T.
func Get[T any](c Context, key string) (T, bool) {
	out, ok := c.Get(key).(T)
	return out, ok
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		if err := os.RemoveAll(file); err != nil {
			slog.Warn("failed to remove temporary file", "file", file, "error", err)
		}
	}
	c.tempFiles = c.tempFiles[:0]
}

func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

func (c *BaseContext) AddError(key string, err error) {
	c.errors = append(c.errors, &CommandError{Command: key, Err: err})
}

func (c *BaseContext) GetErrors() []error {
	return c.errors
}

func (c *BaseContext) Err() error {
	return errors.Join(c.errors...)
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

func (c *BaseContext) AddWarning(key string, err error) {
	c.warnings = append(c.warnings, &CommandError{Command: key, Err: err})
}

func (c *BaseContext) GetWarnings() []error {
	return c.warnings
}
