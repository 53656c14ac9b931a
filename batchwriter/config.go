// Copyright 2024 The TableStore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package batchwriter

import (
	"time"

	"go.tablestore.dev/ots"
	"go.tablestore.dev/ots/executor"
)

// Config defaults.
const (
	DefaultMaxConcurrency = 32
	DefaultMaxBatchSize   = 200
	DefaultRegularNap     = 10 * time.Millisecond
	DefaultMaxNap         = 10 * time.Second
	DefaultNapShrinkStep  = 157 * time.Millisecond
)

// concurrencyIncStep is how many additional in-flight batches each
// untroubled scheduling round may open.
const concurrencyIncStep = 3

// Config tunes a batch writer.
type Config struct {
	// MaxConcurrency bounds in-flight BatchWriteRow calls.
	MaxConcurrency int
	// MaxBatchSize bounds rows per outgoing batch.
	MaxBatchSize int
	// RegularNap is the aggregator poll period when the store is not
	// throttling.
	RegularNap time.Duration
	// MaxNap caps the adaptive nap while throttled.
	MaxNap time.Duration
	// NapShrinkStep is subtracted from the nap each untroubled round.
	NapShrinkStep time.Duration
	// Executors, when non-nil, overrides the client's pool for invoking
	// callbacks.
	Executors *executor.Pool
}

// DefaultConfig mirrors the documented batch-writer defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: DefaultMaxConcurrency,
		MaxBatchSize:   DefaultMaxBatchSize,
		RegularNap:     DefaultRegularNap,
		MaxNap:         DefaultMaxNap,
		NapShrinkStep:  DefaultNapShrinkStep,
	}
}

func configError(msg string) error {
	return &ots.Error{Code: ots.ErrCodeParameterInvalid, Message: msg}
}

func (c Config) Validate() error {
	if c.MaxConcurrency < 1 {
		return configError("Max concurrency must be positive.")
	}
	if c.MaxBatchSize < 1 {
		return configError("Max batch size must be positive.")
	}
	if c.RegularNap <= time.Millisecond {
		return configError("Regular nap must be greater than one msec.")
	}
	if c.MaxNap < 2*c.RegularNap {
		return configError("Max nap must be longer than twice regular period.")
	}
	if c.NapShrinkStep <= 0 {
		return configError("Each step on shrinking nap must be positive.")
	}
	if c.Executors != nil && c.Executors.Size() == 0 {
		return configError("Number of invoking-callback executors must be positive.")
	}
	return nil
}
