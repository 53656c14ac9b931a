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
	"fmt"
)

// Predefined error codes. The string values are wire-compatible with the
// server and drive retry classification.
const (
	// Local pre-flight errors.
	ErrCodeParameterInvalid   = "OTSParameterInvalid"
	ErrCodeClientUnknownError = "OTSClientUnknownError"

	// Transport-level errors. None of them carries an HTTP status, except
	// a CorruptedResponse raised for an unparsable error envelope, which
	// keeps the status of that response.
	ErrCodeCouldntResolveHost    = "CouldntResolveHost"
	ErrCodeNoAvailableConnection = "NoAvailableConnection"
	ErrCodeWriteRequestFail      = "WriteRequestFail"
	ErrCodeCorruptedResponse     = "CorruptedResponse"
	ErrCodeResponseDirectlyLost  = "ResponseDirectlyLost"
	ErrCodeSSLHandshakeFail      = "SSLHandshakeFail"
	ErrCodeRequestTimeout        = "RequestTimeout"

	// Server-side throttling.
	ErrCodeServerBusy            = "OTSServerBusy"
	ErrCodeQuotaExhausted        = "OTSQuotaExhausted"
	ErrCodePartitionUnavailable  = "OTSPartitionUnavailable"
	ErrCodeNotEnoughCapacityUnit = "OTSNotEnoughCapacityUnit"

	// Server-side transient states.
	ErrCodeTableNotReady        = "OTSTableNotReady"
	ErrCodeRowOperationConflict = "OTSRowOperationConflict"
	ErrCodeOTSRequestTimeout    = "OTSRequestTimeout"

	// Server-side terminal errors.
	ErrCodeAuthFailed            = "OTSAuthFailed"
	ErrCodeMethodNotAllowed      = "OTSMethodNotAllowed"
	ErrCodeObjectNotExist        = "OTSObjectNotExist"
	ErrCodeObjectAlreadyExist    = "OTSObjectAlreadyExist"
	ErrCodeConditionCheckFail    = "OTSConditionCheckFail"
	ErrCodeOutOfRowSizeLimit     = "OTSOutOfRowSizeLimit"
	ErrCodeOutOfColumnCountLimit = "OTSOutOfColumnCountLimit"
	ErrCodeInvalidPK             = "OTSInvalidPK"
	ErrCodeInternalServerError   = "OTSInternalServerError"
)

// Error is the error type every SDK operation reports.
//
// Code is one of the ErrCode constants (or a server-issued code outside
// the predefined table). HTTPStatus is 0 for errors raised before a
// response arrived. RequestID is the server-issued per-attempt
// identifier, empty if the server never answered. TraceID is the tracker
// sent with the request.
type Error struct {
	Code       string
	HTTPStatus int
	Message    string
	RequestID  string
	TraceID    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (status=%d, request-id=%q, trace-id=%q)",
		e.Code, e.Message, e.HTTPStatus, e.RequestID, e.TraceID)
}

// errParam builds a validation error. Validation failures never reach the
// transport, so they carry neither status nor request id.
func errParam(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeParameterInvalid,
		Message: fmt.Sprintf(format, args...),
	}
}
