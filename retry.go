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

package ots

import (
	"context"
	"errors"
	"time"

	"go.chromium.org/luci/common/clock"
	"go.chromium.org/luci/common/data/rand/mathrand"
)

// RetryCategory classifies an error code for retry purposes.
type RetryCategory int

const (
	// Unretriable errors terminate the call immediately.
	Unretriable RetryCategory = iota
	// Retriable errors may be retried for any action.
	Retriable
	// Depends errors may be retried only for idempotent actions.
	Depends
)

var retryTable = map[string]RetryCategory{
	ErrCodeRowOperationConflict:  Retriable,
	ErrCodeNotEnoughCapacityUnit: Retriable,
	ErrCodeTableNotReady:         Retriable,
	ErrCodePartitionUnavailable:  Retriable,
	ErrCodeServerBusy:            Retriable,

	ErrCodeQuotaExhausted:    Depends,
	ErrCodeOTSRequestTimeout: Depends,
}

// Classify returns the retry category of an error. Errors that are not
// *Error, and codes outside the fixed table, are Unretriable.
func Classify(err error) RetryCategory {
	var e *Error
	if !errors.As(err, &e) {
		return Unretriable
	}
	return retryTable[e.Code]
}

// ShouldRetry reports whether an (action, error) pair is retriable at
// all, before any deadline consideration.
func ShouldRetry(action Action, err error) bool {
	switch Classify(err) {
	case Retriable:
		return true
	case Depends:
		return idempotentActions[action]
	}
	return false
}

// StopRetry is the pause value a RetryStrategy returns when the call must
// not be retried again.
const StopRetry time.Duration = -1

// RetryStrategy decides whether and when to retry a failed attempt.
//
// A strategy instance belongs to a single logical call: the client keeps
// a template and clones it per call, so each call owns its counter and
// deadline.
type RetryStrategy interface {
	// Clone returns a fresh strategy with zero retries consumed.
	Clone() RetryStrategy
	// Retries is the number of retries consumed so far. It never resets.
	Retries() int64
	// ShouldRetry reports whether the (action, error) pair is retriable.
	ShouldRetry(action Action, err error) bool
	// NextPause returns how long to pause before the next attempt, or
	// StopRetry when the call must fail with the last observed error.
	NextPause(ctx context.Context) time.Duration
}

const (
	retryPauseBase = 100 * time.Millisecond
	retryPauseMax  = 2 * time.Second
	retryJitterMax = 0.25
)

// DeadlineRetryStrategy retries with exponential backoff and jitter,
// bounded by a deadline counted from the first NextPause call. The time
// spent in the first attempt, before it failed, does not count against
// the deadline.
type DeadlineRetryStrategy struct {
	deadline time.Duration
	retries  int64
	expiry   Optional[time.Time]
}

// NewDeadlineRetryStrategy returns a strategy whose cumulative pauses
// never exceed deadline.
func NewDeadlineRetryStrategy(deadline time.Duration) *DeadlineRetryStrategy {
	return &DeadlineRetryStrategy{deadline: deadline}
}

func (s *DeadlineRetryStrategy) Clone() RetryStrategy {
	return NewDeadlineRetryStrategy(s.deadline)
}

func (s *DeadlineRetryStrategy) Retries() int64 { return s.retries }

func (s *DeadlineRetryStrategy) ShouldRetry(action Action, err error) bool {
	return ShouldRetry(action, err)
}

func (s *DeadlineRetryStrategy) NextPause(ctx context.Context) time.Duration {
	now := clock.Now(ctx)
	expiry, ok := s.expiry.Get()
	if !ok {
		expiry = now.Add(s.deadline)
		s.expiry.Set(expiry)
	}
	pause := retryPauseBase << uint(s.retries)
	if pause > retryPauseMax || pause <= 0 {
		pause = retryPauseMax
	}
	pause = time.Duration(float64(pause) * (1 + mathrand.Float64(ctx)*retryJitterMax))
	if now.Add(pause).After(expiry) {
		return StopRetry
	}
	s.retries++
	return pause
}

// NoRetryStrategy fails every call on its first error.
type NoRetryStrategy struct{}

func (NoRetryStrategy) Clone() RetryStrategy { return NoRetryStrategy{} }

func (NoRetryStrategy) Retries() int64 { return 0 }

func (NoRetryStrategy) ShouldRetry(Action, error) bool { return false }

func (NoRetryStrategy) NextPause(context.Context) time.Duration { return StopRetry }
