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
	"strings"

	"github.com/ngnhng/oapi-engine/opindex"
	"github.com/ngnhng/oapi-engine/schemaengine"
)

// bodySchemaMap wraps a request body's JSON schema in the envelope
// ValidateRequest expects: a top-level object with a single
// "requestBody" property, required only when application/json is the
// body's sole declared media type.
func bodySchemaMap(rb *opindex.RequestBodyLike) map[string]any {
	required := []any{}
	if rb.SoleJSONMediaType {
		required = append(required, "requestBody")
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties": map[string]any{
			"requestBody": schemaengine.ToSchemaMap(rb.Schema, "#/properties/requestBody"),
		},
		"required": required,
	}
}

// paramsSchemaMap builds the four-bucket parameter envelope (path,
// query, header, cookie), each bucket required'd only for its own
// required parameters, and the outer envelope required'd for any
// bucket containing at least one required parameter.
func paramsSchemaMap(params []opindex.Parameter) map[string]any {
	buckets := map[string]*bucket{
		"path":   {additionalProperties: false},
		"query":  {additionalProperties: false},
		"header": {additionalProperties: true},
		"cookie": {additionalProperties: true},
	}

	var outerRequired []any
	outerSeen := map[string]bool{}

	for _, p := range params {
		b, ok := buckets[p.In]
		if !ok {
			continue
		}
		name := p.Name
		if p.In == "header" {
			name = strings.ToLower(name)
		}

		var schemaMap map[string]any
		root := "#/properties/" + p.In + "/properties/" + name
		if p.Content != nil {
			if media, ok := p.Content["application/json"]; ok && media != nil && media.Schema != nil {
				schemaMap = schemaengine.ToSchemaMap(media.Schema, root)
			}
		}
		if schemaMap == nil {
			schemaMap = schemaengine.ToSchemaMap(p.Schema, root)
		}
		if schemaMap == nil {
			schemaMap = map[string]any{}
		}

		if b.properties == nil {
			b.properties = map[string]any{}
		}
		b.properties[name] = schemaMap

		if p.Required {
			b.required = append(b.required, name)
			if !outerSeen[p.In] {
				outerSeen[p.In] = true
				outerRequired = append(outerRequired, p.In)
			}
		}
	}

	properties := map[string]any{}
	for in, b := range buckets {
		props := b.properties
		if props == nil {
			props = map[string]any{}
		}
		required := b.required
		if required == nil {
			required = []any{}
		}
		properties[in] = map[string]any{
			"type":                 "object",
			"additionalProperties": b.additionalProperties,
			"properties":           props,
			"required":             required,
		}
	}

	if outerRequired == nil {
		outerRequired = []any{}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           properties,
		"required":             outerRequired,
	}
}

type bucket struct {
	properties           map[string]any
	required             []any
	additionalProperties bool
}

// responseHeadersSchemaMap builds the envelope for one SetMatchType
// flavor: {type: object, properties: {headers: {...}}}.
func responseHeadersSchemaMap(headers map[string]opindex.Header, flavor SetMatchType) map[string]any {
	props := map[string]any{}
	var required []any
	for name, h := range headers {
		lower := strings.ToLower(name)
		props[lower] = schemaengine.ToSchemaMap(h.Schema, "#/properties/headers/properties/"+lower)
		required = append(required, lower)
	}
	if required == nil {
		required = []any{}
	}

	additionalProperties := true
	effectiveRequired := []any{}
	switch flavor {
	case Any:
		additionalProperties = true
		effectiveRequired = []any{}
	case Superset:
		additionalProperties = true
		effectiveRequired = required
	case Subset:
		additionalProperties = false
		effectiveRequired = []any{}
	case Exact:
		additionalProperties = false
		effectiveRequired = required
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"headers": map[string]any{
				"type":                 "object",
				"properties":           props,
				"required":             effectiveRequired,
				"additionalProperties": additionalProperties,
			},
		},
	}
}
