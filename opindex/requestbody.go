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

package opindex

import "github.com/getkin/kin-openapi/openapi3"

// RequestBodyLike is the application/json view of a request body: its
// schema, and whether application/json is the only media type the
// body declares (the condition under which the body becomes required
// in the synthesized envelope).
type RequestBodyLike struct {
	Schema            *openapi3.SchemaRef
	SoleJSONMediaType bool
	Required          bool
}

// RequestBody extracts the application/json RequestBodyLike view of
// rb, or nil if rb declares no application/json media type.
func RequestBody(rb *openapi3.RequestBodyRef) *RequestBodyLike {
	if rb == nil || rb.Value == nil {
		return nil
	}
	media, ok := rb.Value.Content["application/json"]
	if !ok || media == nil {
		return nil
	}
	return &RequestBodyLike{
		Schema:            media.Schema,
		SoleJSONMediaType: len(rb.Value.Content) == 1,
		Required:          rb.Value.Required,
	}
}

// Header is a flattened OpenAPI response header.
type Header struct {
	Schema   *openapi3.SchemaRef
	Required bool
}

// ResponseHeaders flattens a response's declared headers keyed by
// their original (not yet lowercased) name.
func ResponseHeaders(resp *openapi3.ResponseRef) map[string]Header {
	out := map[string]Header{}
	if resp == nil || resp.Value == nil {
		return out
	}
	for name, ref := range resp.Value.Headers {
		if ref == nil || ref.Value == nil {
			continue
		}
		out[name] = Header{Schema: ref.Value.Schema, Required: ref.Value.Required}
	}
	return out
}

// JSONResponseSchema returns the application/json schema declared for
// resp, or nil if it declares none.
func JSONResponseSchema(resp *openapi3.ResponseRef) *openapi3.SchemaRef {
	if resp == nil || resp.Value == nil {
		return nil
	}
	media, ok := resp.Value.Content["application/json"]
	if !ok || media == nil {
		return nil
	}
	return media.Schema
}
