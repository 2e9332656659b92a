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
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validator checks a decoded JSON value against a compiled schema and
// reports every violation it finds (schema compilation always uses
// openapi3.MultiError accumulation — see Compile).
type Validator func(value any) []FieldError

// compileOptions configures Compile.
type compileOptions struct {
	coerce bool
}

// CompileOption customizes how a schema is compiled.
type CompileOption func(*compileOptions)

// WithCoercion enables string→typed coercion ahead of validation, for
// schemas whose input arrives as strings regardless of declared type
// (path/query/header/cookie parameters). Request and response bodies,
// already JSON-typed, are compiled without it.
func WithCoercion(enabled bool) CompileOption {
	return func(o *compileOptions) { o.coerce = enabled }
}

// Compile mounts schemaMap (the output of ToSchemaMap, or a composite
// envelope built out of it — see package validator) into a throwaway
// single-schema OpenAPI document and hands it to kin-openapi, which
// both resolves the "$ref": "#/..." markers BreakCycles/ToSchemaMap
// left behind and performs the actual structural validation. Mounting
// it inside components.schemas/Root rather than validating the raw
// map directly is what lets kin-openapi's own $ref machinery — which
// is cycle-tolerant — take those markers at face value.
func Compile(schemaMap map[string]any, opts ...CompileOption) (Validator, error) {
	cfg := compileOptions{}
	for _, opt := range opts {
		opt(&cfg)
	}

	mounted := rewriteRefs(schemaMap, "#/components/schemas/Root")

	doc := map[string]any{
		"openapi": "3.0.0",
		"info":    map[string]any{"title": "engine-compiled-schema", "version": "0"},
		"paths":   map[string]any{},
		"components": map[string]any{
			"schemas": map[string]any{"Root": mounted},
		},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("schemaengine: marshal synthetic document: %w", err)
	}

	loaded, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("schemaengine: load synthetic document: %w", err)
	}

	root := loaded.Components.Schemas["Root"]
	if root == nil || root.Value == nil {
		return nil, fmt.Errorf("schemaengine: synthetic document missing compiled root schema")
	}
	schema := root.Value

	return func(value any) []FieldError {
		input := value
		if cfg.coerce {
			input = coerce(schema, value)
		}
		visitErr := schema.VisitJSON(input, openapi3.MultiErrors())
		if visitErr == nil {
			return nil
		}
		return ExtractFieldErrors(visitErr)
	}, nil
}

// rewriteRefs prefixes every "$ref" emitted by BreakCycles/ToSchemaMap
// (relative to "#") so it resolves against the schema's mount point
// inside the synthetic document instead of the document root.
func rewriteRefs(v any, mountPoint string) any {
	switch val := v.(type) {
	case map[string]any:
		if ref, ok := val["$ref"].(string); ok && len(val) == 1 {
			return map[string]any{"$ref": mountPoint + ref[1:]}
		}
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = rewriteRefs(child, mountPoint)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = rewriteRefs(child, mountPoint)
		}
		return out
	default:
		return v
	}
}
