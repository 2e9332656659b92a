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

package schemaengine

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// FieldError is the engine's own shape for a single schema violation,
// independent of whatever error type the underlying schema engine
// raises — callers never need to know they're looking at a
// *openapi3.SchemaError.
type FieldError struct {
	// Path is the JSON pointer (without a leading "#") to the
	// offending value, e.g. "requestBody/name" or "query/limit".
	Path string
	// Keyword is the JSON Schema keyword that failed ("required",
	// "type", "enum", ...), or "parse" for the synthetic body-parse
	// failure described in spec section 4.5 step 5.
	Keyword string
	// Reason is a human-readable explanation.
	Reason string
}

// ParseError is the synthetic error recorded when a request body that
// should be JSON fails to parse as JSON.
func ParseError() FieldError {
	return FieldError{Path: "requestBody", Keyword: "parse", Reason: "request body is not valid JSON"}
}

// ExtractFieldErrors flattens whatever kin-openapi raised from
// Schema.VisitJSON into the engine's FieldError shape.
func ExtractFieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case openapi3.MultiError:
		var out []FieldError
		for _, item := range e {
			out = append(out, ExtractFieldErrors(item)...)
		}
		return out
	case *openapi3.SchemaError:
		return []FieldError{{
			Path:    strings.Join(e.JSONPointer(), "/"),
			Keyword: schemaErrorKeyword(e),
			Reason:  e.Reason,
		}}
	default:
		return []FieldError{{Path: "", Keyword: "invalid", Reason: err.Error()}}
	}
}

// schemaErrorKeyword best-efforts a keyword name out of a SchemaError
// for callers that branch on it (response validators do not, but
// dispatch-level logging finds it useful).
func schemaErrorKeyword(e *openapi3.SchemaError) string {
	if e.SchemaField != "" {
		return e.SchemaField
	}
	return "schema"
}
