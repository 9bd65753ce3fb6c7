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
// compose the pipeline stages as sequences of commands. This file defines the
// interfaces shared by every command, chain and context.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys of the primary data flow inside a chain.
const (
	// CtxIn holds the input of the next command. A chain fills it with the
	// output of the previous command that ran.
	CtxIn = "__IN__"
	// CtxOut is where a command leaves its primary output. When a chain
	// completes, its final value is left here so chains can be nested.
	CtxOut = "__OUT__"
)

// Context is the state shared by the commands of one workflow execution.
type Context interface {
	// SetContext sets the Go context carrying cancellation and the current span.
	SetContext(context context.Context)

	// GetContext returns the Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes the value stored under key.
	Remove(key string)

	// AddError records a failure of the command named key. Errors are kept in
	// the order they were recorded.
	AddError(key string, err error)

	// GetErrors returns every recorded error, oldest first. Each one is a
	// *CommandError.
	GetErrors() []error

	// Err joins the recorded errors, or returns nil when there are none.
	Err() error

	// HasErrors reports whether any error was recorded.
	HasErrors() bool

	// AddWarning records a non fatal condition raised by the command named key.
	AddWarning(key string, err error)

	// GetWarnings returns every recorded warning, oldest first.
	GetWarnings() []error

	// AddTempFile tracks a file or folder removed by Close.
	AddTempFile(file string)

	// GetTempFiles returns the tracked temporary paths.
	GetTempFiles() []string

	// Close removes every temporary path. Defer it when creating a context.
	Close()
}

// Executable is anything that runs against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is one step of a workflow.
type Command interface {
	Executable

	// GetName returns the unique name used for logs, spans and metrics.
	GetName() string

	// GetInputParam returns the key of the primary input.
	GetInputParam() string

	// GetOutputParam returns the key of the primary output.
	GetOutputParam() string

	// IsExecutable reports whether the Context holds what Execute needs.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command running other commands in order.
type Chain interface {
	Command

	// ContinueOnFailure sets whether the remaining commands run after one
	// of them records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain
}
