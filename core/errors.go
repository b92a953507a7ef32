/*
 * Copyright 2025. Mantis Author All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

package core

import (
	"fmt"

	"github.com/pingcap/errors"
	"go.uber.org/multierr"
)

// ErrorKind is the closed taxonomy of planning failures. Logical-planning
// kinds mean the report cannot be satisfied against the current graph and
// are surfaced verbatim, never retried or relaxed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnreachableEntity
	KindUnsafeFanout
	KindUnknownMeasure
	KindUnknownDimension
	KindCyclicInlineMeasure
	KindNoCandidates
	KindTimeout
	KindIncompatibleDialectFeature
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnreachableEntity:
		return "UnreachableEntity"
	case KindUnsafeFanout:
		return "UnsafeFanout"
	case KindUnknownMeasure:
		return "UnknownMeasure"
	case KindUnknownDimension:
		return "UnknownDimension"
	case KindCyclicInlineMeasure:
		return "CyclicInlineMeasure"
	case KindNoCandidates:
		return "NoCandidates"
	case KindTimeout:
		return "Timeout"
	case KindIncompatibleDialectFeature:
		return "IncompatibleDialectFeature"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// PlanError carries one failure kind plus human-readable detail.
type PlanError struct {
	Kind   ErrorKind
	Detail string
}

func (e *PlanError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

func NewPlanError(kind ErrorKind, format string, args ...interface{}) *PlanError {
	return &PlanError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the planning-error kind from err, walking wrap chains
// and multierr bundles. A bundle reports the kind of its first member.
func KindOf(err error) (ErrorKind, bool) {
	if err == nil {
		return KindUnknown, false
	}
	if pe, ok := err.(*PlanError); ok {
		return pe.Kind, true
	}
	for _, e := range multierr.Errors(err) {
		if e == err {
			continue
		}
		if k, ok := KindOf(e); ok {
			return k, true
		}
	}
	if cause := errors.Cause(err); cause != nil && cause != err {
		return KindOf(cause)
	}
	return KindUnknown, false
}

// IsKind reports whether err carries the given planning-error kind
// anywhere in its wrap chain or bundle.
func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*PlanError); ok {
		return pe.Kind == kind
	}
	for _, e := range multierr.Errors(err) {
		if e == err {
			continue
		}
		if IsKind(e, kind) {
			return true
		}
	}
	if cause := errors.Cause(err); cause != nil && cause != err {
		return IsKind(cause, kind)
	}
	return false
}
