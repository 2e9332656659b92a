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

package validator

import (
	"encoding/json"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ngnhng/oapi-engine/opindex"
	"github.com/ngnhng/oapi-engine/router"
	"github.com/ngnhng/oapi-engine/schemaengine"
	"github.com/ngnhng/oapi-engine/status"
)

// ValidateRequest runs parsed through every validator Build compiled
// for op, in order, accumulating violations from all of them even
// after an earlier one fails.
func (c Compiled) ValidateRequest(parsed router.ParsedRequest, op opindex.Operation) Result {
	var errs []FieldError

	coerceSingularQueryArrays(parsed.Query, op.Parameters)

	bodyEnvelope, parseErr := buildBodyEnvelope(parsed.RequestBody, op.RequestBody)
	if parseErr != nil {
		errs = append(errs, *parseErr)
	}

	paramsInput := buildParamsInput(parsed)

	idx := 0
	if opindex.RequestBody(op.RequestBody) != nil && len(c.RequestValidators) > 0 {
		errs = append(errs, c.RequestValidators[0](bodyEnvelope)...)
		idx = 1
	}
	if idx < len(c.RequestValidators) {
		errs = append(errs, c.RequestValidators[idx](paramsInput)...)
	}

	return fromErrors(errs)
}

// ValidateResponse checks body against the response validator for
// statusCode, or the combined oneOf validator when statusCode is nil.
// A missing validator is not an error: it treats an
// operation with no matching declared schema as trivially valid.
func (c Compiled) ValidateResponse(body any, statusCode *int) Result {
	if statusCode != nil {
		v, matched := status.FindMatch(*statusCode, c.StatusResponseValidators)
		if !matched || v == nil {
			return ok()
		}
		validator, isValidator := v.(SchemaValidator)
		if !isValidator || validator == nil {
			return ok()
		}
		return fromErrors(validator(body))
	}

	if c.ResponseValidator == nil {
		return ok()
	}
	return fromErrors(c.ResponseValidator(body))
}

// ValidateResponseHeaders resolves the HeaderValidatorSet for
// statusCode (or the operation's default status when nil), selects
// the sub-validator for setMatch, lowercases header keys, and
// validates the {headers: {...}} envelope. An unknown setMatchType is
// a programmer error and panics rather than
// returning a Result.
func (c Compiled) ValidateResponseHeaders(headers map[string]string, statusCode *int, setMatch SetMatchType) Result {
	var entry any
	var found bool

	if statusCode != nil {
		entry, found = status.FindMatch(*statusCode, c.ResponseHeaderValidators)
	} else {
		_, entry, found = status.FindDefaultMatch(c.ResponseHeaderValidators)
	}
	if !found || entry == nil {
		return ok()
	}

	set, ok := entry.(HeaderValidatorSet)
	if !ok {
		return ok()
	}

	validator, err := set.forMatch(setMatch)
	if err != nil {
		panic(err)
	}
	if validator == nil {
		return ok()
	}

	lowered := make(map[string]any, len(headers))
	for k, v := range headers {
		lowered[strings.ToLower(k)] = v
	}

	return fromErrors(validator(map[string]any{"headers": lowered}))
}

// coerceSingularQueryArrays works around OpenAPI documents that don't
// consistently reflect single-element query lists: any query
// parameter declared type:array whose decoded value isn't already a
// slice is wrapped in a single-element one.
func coerceSingularQueryArrays(query map[string]any, params []opindex.Parameter) {
	for _, p := range params {
		if p.In != "query" || !schemaIsArray(p.Schema) {
			continue
		}
		v, ok := query[p.Name]
		if !ok {
			continue
		}
		if _, isSlice := v.([]any); isSlice {
			continue
		}
		query[p.Name] = []any{v}
	}
}

func schemaIsArray(ref *openapi3.SchemaRef) bool {
	if ref == nil || ref.Value == nil || ref.Value.Type == nil {
		return false
	}
	for _, t := range *ref.Value.Type {
		if t == "array" {
			return true
		}
	}
	return false
}

// buildBodyEnvelope produces the {requestBody: ...} input handed to
// the compiled body validator. A string body is JSON-parsed only when
// application/json is the sole declared media type; a parse failure
// yields the synthetic FieldError{Keyword: "parse", Path: "requestBody"}
// instead of raising.
func buildBodyEnvelope(body any, rb *openapi3.RequestBodyRef) (map[string]any, *FieldError) {
	like := opindex.RequestBody(rb)
	if like == nil {
		return map[string]any{}, nil
	}

	switch v := body.(type) {
	case nil:
		return map[string]any{}, nil
	case string:
		if !like.SoleJSONMediaType {
			return map[string]any{}, nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			fe := schemaengine.ParseError()
			return map[string]any{}, &fe
		}
		return map[string]any{"requestBody": decoded}, nil
	default:
		return map[string]any{"requestBody": body}, nil
	}
}

// buildParamsInput assembles the four-bucket parameter validator
// input, omitting any bucket the request supplied nothing for.
func buildParamsInput(parsed router.ParsedRequest) map[string]any {
	input := map[string]any{}
	if len(parsed.Params) > 0 {
		path := make(map[string]any, len(parsed.Params))
		for k, v := range parsed.Params {
			path[k] = v
		}
		input["path"] = path
	}
	if len(parsed.Query) > 0 {
		input["query"] = parsed.Query
	}
	if len(parsed.Headers) > 0 {
		header := make(map[string]any, len(parsed.Headers))
		for k, v := range parsed.Headers {
			header[strings.ToLower(k)] = v
		}
		input["header"] = header
	}
	if len(parsed.Cookies) > 0 {
		cookie := make(map[string]any, len(parsed.Cookies))
		for k, v := range parsed.Cookies {
			cookie[k] = v
		}
		input["cookie"] = cookie
	}
	return input
}
