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
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/oapi-codegen/runtime"
)

// coerce walks value alongside schema and converts string leaves to
// the Go-native shape their declared type implies (integer, number,
// boolean), since parameters always arrive from the wire as strings
// (or arrays/objects of strings) regardless of their declared schema
// type. Bodies are already JSON-typed and never pass through here.
func coerce(schema *openapi3.Schema, value any) any {
	if schema == nil {
		return value
	}

	switch v := value.(type) {
	case map[string]any:
		if len(schema.Properties) == 0 {
			return v
		}
		out := make(map[string]any, len(v))
		for k, child := range v {
			if propRef, ok := schema.Properties[k]; ok && propRef != nil {
				out[k] = coerce(propRef.Value, child)
			} else {
				out[k] = child
			}
		}
		return out
	case []any:
		if schema.Items == nil {
			return v
		}
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = coerce(schema.Items.Value, child)
		}
		return out
	case string:
		return coerceScalar(schemaTypeName(schema), v)
	default:
		return value
	}
}

func schemaTypeName(schema *openapi3.Schema) string {
	if schema == nil || schema.Type == nil || len(*schema.Type) == 0 {
		return ""
	}
	return (*schema.Type)[0]
}

// coerceScalar binds a single raw string onto the Go type a schema
// type name implies, using oapi-codegen/runtime's parameter-binding
// helper (the same one generated server/client code relies on to turn
// a path or query string into a typed Go value).
func coerceScalar(schemaType, raw string) any {
	switch schemaType {
	case "integer":
		var dst int64
		if err := runtime.BindStringToObject(raw, &dst); err == nil {
			return dst
		}
	case "number":
		var dst float64
		if err := runtime.BindStringToObject(raw, &dst); err == nil {
			return dst
		}
	case "boolean":
		var dst bool
		if err := runtime.BindStringToObject(raw, &dst); err == nil {
			return dst
		}
	}
	return raw
}
