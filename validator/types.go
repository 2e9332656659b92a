// Copyright 2025 Nguyen Nhat Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package validator compiles, per operation, the composite JSON
// Schemas that check request parameters, request bodies, responses,
// and response headers — and runs requests/responses against them at
// dispatch time.
package validator

import (
	"github.com/ngnhng/oapi-engine/schemaengine"
	"github.com/ngnhng/oapi-engine/status"
)

// SchemaValidator checks one decoded value and reports every
// violation found.
type SchemaValidator = schemaengine.Validator

// FieldError is a single schema violation.
type FieldError = schemaengine.FieldError

// Result is the outcome of a validation run.
type Result struct {
	Valid  bool
	Errors []FieldError
}

func ok() Result { return Result{Valid: true} }

func fromErrors(errs []FieldError) Result {
	if len(errs) == 0 {
		return ok()
	}
	return Result{Valid: false, Errors: errs}
}

// SetMatchType governs how strictly a response's actual headers must
// match its declared set.
type SetMatchType int

const (
	// Any allows undeclared headers and does not require declared ones.
	Any SetMatchType = iota
	// Superset allows undeclared headers but requires every declared one.
	Superset
	// Subset forbids undeclared headers but does not require declared ones.
	Subset
	// Exact requires exactly the declared set, no more, no fewer.
	Exact
)

// HeaderValidatorSet holds the four SetMatchType flavors compiled for
// one status code's declared response headers.
type HeaderValidatorSet struct {
	Any      SchemaValidator
	Superset SchemaValidator
	Subset   SchemaValidator
	Exact    SchemaValidator
}

func (s HeaderValidatorSet) forMatch(match SetMatchType) (SchemaValidator, error) {
	switch match {
	case Any:
		return s.Any, nil
	case Superset:
		return s.Superset, nil
	case Subset:
		return s.Subset, nil
	case Exact:
		return s.Exact, nil
	default:
		return nil, errUnknownSetMatchType
	}
}

// Compiled holds every validator built for one operation.
type Compiled struct {
	// RequestValidators runs in order: the body validator (if the
	// operation declares a JSON request body), then the params
	// validator. Spec section 4.5 requires this order and that every
	// validator runs even after an earlier one fails.
	RequestValidators []SchemaValidator
	// ResponseValidator is the combined oneOf over every declared
	// response schema, used when ValidateResponse is called without a
	// status code.
	ResponseValidator SchemaValidator
	// StatusResponseValidators maps a status key ("200", "4XX",
	// "default") to that response's own validator.
	StatusResponseValidators status.Map
	// ResponseHeaderValidators maps a status key to its HeaderValidatorSet.
	ResponseHeaderValidators status.Map
}
