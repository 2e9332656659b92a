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

// Package mock instantiates representative example values from an
// operation's declared responses, for callers (test harnesses, a
// not-implemented fallback handler) that want a plausible body
// without a real backend behind the operation.
package mock

import (
	"errors"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofrs/uuid/v5"
	"github.com/ngnhng/oapi-engine/opindex"
	"github.com/ngnhng/oapi-engine/status"
)

// maxDepth caps schema-instantiation recursion (allOf/properties/items
// chains that reach back into themselves through $ref) so a
// self-referential schema terminates instead of overflowing the
// stack; see DESIGN.md open-question (c).
const maxDepth = 8

// ErrNoResponses is returned when op declares no responses object at
// all step 1.
var ErrNoResponses = errors.New("mock: operation declares no responses")

// MockOptions customizes ResponseForOperation's status/media selection.
type MockOptions struct {
	// Code, if non-zero, is used verbatim instead of resolving a
	// default via the Status Matcher.
	Code int
	// MediaType defaults to "application/json".
	MediaType string
	// Example names a specific entry in a response's `examples` map;
	// ignored when the response declares a single `example` instead.
	Example string
}

// ResponseForOperation resolves a status code and instantiates a
// representative value for op's response at that status.
func ResponseForOperation(op opindex.Operation, opts MockOptions) (int, any, error) {
	if op.Responses == nil {
		return 0, nil, ErrNoResponses
	}

	mediaType := opts.MediaType
	if mediaType == "" {
		mediaType = "application/json"
	}

	keys, values := responsesStatusMap(op.Responses)

	code := opts.Code
	var respRef *openapi3.ResponseRef
	if code != 0 {
		v, ok := status.FindMatch(code, status.NewMap(keys, values))
		if !ok {
			return 0, nil, nil
		}
		respRef, _ = v.(*openapi3.ResponseRef)
	} else {
		c, v, ok := status.FindDefaultMatch(status.NewMap(keys, values))
		if !ok {
			return 0, nil, nil
		}
		code = c
		respRef, _ = v.(*openapi3.ResponseRef)
	}
	if respRef == nil || respRef.Value == nil {
		return code, nil, nil
	}

	media, ok := respRef.Value.Content[mediaType]
	if !ok || media == nil {
		return code, nil, nil
	}

	if media.Example != nil {
		return code, media.Example, nil
	}
	if len(media.Examples) > 0 {
		if opts.Example != "" {
			if ex, ok := media.Examples[opts.Example]; ok && ex != nil && ex.Value != nil {
				return code, ex.Value.Value, nil
			}
		}
		for _, ex := range media.Examples {
			if ex != nil && ex.Value != nil {
				return code, ex.Value.Value, nil
			}
		}
	}
	if media.Schema != nil {
		return code, instantiate(media.Schema, 0), nil
	}
	return code, nil, nil
}

// responsesStatusMap collects the declared status keys and their
// responses. Keys come out in Go map iteration order of
// Responses.Map(), not document order, so when FindDefaultMatch falls
// back to "the first key" among several candidates the pick is not
// fixed from call to call.
func responsesStatusMap(responses *openapi3.Responses) ([]string, map[string]any) {
	values := map[string]any{}
	var keys []string
	for key, ref := range responses.Map() {
		keys = append(keys, key)
		values[key] = ref
	}
	return keys, values
}

// instantiate builds a representative value for schema, applying
// instantiation rules in order: example
// short-circuit, array/object/allOf/anyOf/oneOf structural rules,
// enum-first, then primitive-by-format fallback.
func instantiate(ref *openapi3.SchemaRef, depth int) any {
	if ref == nil || ref.Value == nil || depth > maxDepth {
		return nil
	}
	s := ref.Value

	if s.Example != nil {
		return s.Example
	}
	if len(s.Enum) > 0 {
		return s.Enum[0]
	}

	if len(s.AllOf) > 0 {
		merged := map[string]any{}
		for _, member := range s.AllOf {
			if v, ok := instantiate(member, depth+1).(map[string]any); ok {
				for k, val := range v {
					merged[k] = val
				}
			}
		}
		return merged
	}
	if len(s.AnyOf) > 0 {
		merged := map[string]any{}
		any_ := false
		for _, member := range s.AnyOf {
			if v, ok := instantiate(member, depth+1).(map[string]any); ok {
				any_ = true
				for k, val := range v {
					merged[k] = val
				}
			}
		}
		if any_ {
			return merged
		}
		return instantiate(s.AnyOf[0], depth+1)
	}
	if len(s.OneOf) > 0 {
		return instantiate(s.OneOf[0], depth+1)
	}

	typeName := ""
	if s.Type != nil && len(*s.Type) > 0 {
		typeName = (*s.Type)[0]
	}

	switch typeName {
	case "array":
		if s.Items == nil {
			return []any{}
		}
		return []any{instantiate(s.Items, depth+1)}
	case "object":
		out := map[string]any{}
		for name, propRef := range s.Properties {
			out[name] = instantiate(propRef, depth+1)
		}
		return out
	case "string":
		return stringExemplar(s.Format)
	case "integer":
		if s.Min != nil {
			return int(*s.Min)
		}
		return 0
	case "number":
		if s.Min != nil {
			return *s.Min
		}
		return 0.0
	case "boolean":
		return false
	default:
		if len(s.Properties) > 0 {
			out := map[string]any{}
			for name, propRef := range s.Properties {
				out[name] = instantiate(propRef, depth+1)
			}
			return out
		}
		return nil
	}
}

// stringExemplar returns a format-aware exemplar string, falling back
// to an empty string for an unrecognized or absent format.
func stringExemplar(format string) string {
	switch format {
	case "uuid":
		id, err := uuid.NewV4()
		if err != nil {
			return ""
		}
		return id.String()
	case "date-time":
		return "2024-01-01T00:00:00Z"
	case "date":
		return "2024-01-01"
	case "email":
		return "user@example.com"
	default:
		return ""
	}
}
