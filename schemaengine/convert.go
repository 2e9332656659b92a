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
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

// ToSchemaMap converts a fully-dereferenced OpenAPI schema into the
// engine's generic JSON Schema representation (map[string]any/[]any/
// scalars), the shape the rest of the engine builds composite request
// and response schemas out of.
//
// Unlike BreakCycles, which clones an already-generic tree, this walk
// tracks visited *openapi3.Schema pointers directly: after $ref
// dereferencing, a self-referential document schema (Node.children
// items $ref: '#/components/schemas/Node') is a genuine Go-level
// pointer cycle, not merely deep nesting, and a naive recursive walk
// over it would never terminate. Revisiting a schema pointer emits a
// {"$ref": <path>} node relative to root instead of recursing again.
func ToSchemaMap(ref *openapi3.SchemaRef, root string) map[string]any {
	if ref == nil || ref.Value == nil {
		return nil
	}
	return schemaToMap(ref.Value, root, make(map[*openapi3.Schema]string))
}

func schemaToMap(s *openapi3.Schema, path string, seen map[*openapi3.Schema]string) map[string]any {
	if prior, ok := seen[s]; ok {
		return map[string]any{"$ref": prior}
	}
	seen[s] = path

	out := map[string]any{}
	if s.Type != nil && len(*s.Type) > 0 {
		if len(*s.Type) == 1 {
			out["type"] = (*s.Type)[0]
		} else {
			out["type"] = []string(*s.Type)
		}
	}
	if s.Format != "" {
		out["format"] = s.Format
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Default != nil {
		out["default"] = s.Default
	}
	if s.Example != nil {
		out["example"] = s.Example
	}
	if s.Nullable {
		out["nullable"] = true
	}
	if s.Min != nil {
		out["minimum"] = *s.Min
	}
	if s.Max != nil {
		out["maximum"] = *s.Max
	}
	if s.MinLength != 0 {
		out["minLength"] = s.MinLength
	}
	if s.MaxLength != nil {
		out["maxLength"] = *s.MaxLength
	}
	if s.Pattern != "" {
		out["pattern"] = s.Pattern
	}

	if s.Items != nil {
		out["items"] = schemaToMap(s.Items.Value, path+"/items", seen)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, propRef := range s.Properties {
			if propRef == nil || propRef.Value == nil {
				continue
			}
			props[name] = schemaToMap(propRef.Value, path+"/properties/"+name, seen)
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = append([]string(nil), s.Required...)
	}
	if s.AdditionalPropertiesAllowed != nil {
		out["additionalProperties"] = *s.AdditionalPropertiesAllowed
	} else if s.AdditionalProperties.Schema != nil {
		out["additionalProperties"] = schemaToMap(s.AdditionalProperties.Schema.Value, path+"/additionalProperties", seen)
	}

	if len(s.AllOf) > 0 {
		out["allOf"] = schemaRefsToMaps(s.AllOf, path+"/allOf", seen)
	}
	if len(s.AnyOf) > 0 {
		out["anyOf"] = schemaRefsToMaps(s.AnyOf, path+"/anyOf", seen)
	}
	if len(s.OneOf) > 0 {
		out["oneOf"] = schemaRefsToMaps(s.OneOf, path+"/oneOf", seen)
	}

	return out
}

func schemaRefsToMaps(refs openapi3.SchemaRefs, path string, seen map[*openapi3.Schema]string) []any {
	out := make([]any, 0, len(refs))
	for i, r := range refs {
		if r == nil || r.Value == nil {
			continue
		}
		out = append(out, schemaToMap(r.Value, path+"/"+strconv.Itoa(i), seen))
	}
	return out
}
