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

// Package opindex flattens an OpenAPI document's paths × methods into
// a flat list of Operation records with path-level parameters and
// document-level security already merged in, so the rest of the
// engine never has to walk the document's nested shape again.
package opindex

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// knownMethods are the only HTTP methods an OpenAPI 3.0 Path Item can
// declare an Operation under, in document order (the order callers
// see them in ties at equal route specificity).
var knownMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// Parameter is a flattened, case-normalized OpenAPI parameter.
type Parameter struct {
	Name     string
	In       string // "path", "query", "header", "cookie"
	Required bool
	Schema   *openapi3.SchemaRef
	Content  map[string]*openapi3.MediaType
	Style    string
	Explode  *bool
}

// SecurityRequirement maps scheme name to required scopes, mirroring
// one alternative ("OR" branch) of an OpenAPI security requirement.
type SecurityRequirement map[string][]string

// Operation is one (method, path) pair, with inheritance already
// resolved: Parameters is operation-level parameters first, then any
// path-level parameters not already named+located by an operation-level
// one; Security is the operation's own security if it declared one
// (even an explicit empty list), else the document's top-level
// security, else no requirements at all.
type Operation struct {
	Method      string
	Path        string
	OperationID string
	Parameters  []Parameter
	RequestBody *openapi3.RequestBodyRef
	Responses   *openapi3.Responses
	Security    []SecurityRequirement
}

// Build flattens doc.Paths into the Operation list described above.
// Path items are visited in map order; since OpenAPI paths are keyed
// by the path template string, callers that need a stable order
// should sort the result themselves (the Router does, by
// specificity — see package router).
func Build(doc *openapi3.T) []Operation {
	var ops []Operation
	if doc == nil || doc.Paths == nil {
		return ops
	}

	docSecurity := convertSecurity(&doc.Security)

	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		pathParams := convertParameters(item.Parameters)

		for _, method := range knownMethods {
			op := operationForMethod(item, method)
			if op == nil {
				continue
			}

			merged := mergeParameters(convertParameters(op.Parameters), pathParams)

			security := docSecurity
			if op.Security != nil {
				security = convertSecurity(op.Security)
			}

			ops = append(ops, Operation{
				Method:      method,
				Path:        path,
				OperationID: op.OperationID,
				Parameters:  merged,
				RequestBody: op.RequestBody,
				Responses:   op.Responses,
				Security:    security,
			})
		}
	}

	return ops
}

// ByID returns the first operation whose OperationID matches id.
func ByID(ops []Operation, id string) (Operation, bool) {
	for _, op := range ops {
		if op.OperationID == id {
			return op, true
		}
	}
	return Operation{}, false
}

func operationForMethod(item *openapi3.PathItem, method string) *openapi3.Operation {
	switch method {
	case "get":
		return item.Get
	case "put":
		return item.Put
	case "post":
		return item.Post
	case "delete":
		return item.Delete
	case "options":
		return item.Options
	case "head":
		return item.Head
	case "patch":
		return item.Patch
	case "trace":
		return item.Trace
	default:
		return nil
	}
}

func convertParameters(params openapi3.Parameters) []Parameter {
	out := make([]Parameter, 0, len(params))
	for _, p := range params {
		if p == nil || p.Value == nil {
			continue
		}
		v := p.Value
		name := v.Name
		in := v.In
		if in == "header" {
			name = strings.ToLower(name)
		}
		out = append(out, Parameter{
			Name:     name,
			In:       in,
			Required: v.Required,
			Schema:   v.Schema,
			Content:  v.Content,
			Style:    v.Style,
			Explode:  v.Explode,
		})
	}
	return out
}

// mergeParameters combines operation-level parameters with path-level
// ones, operation-level first; a path-level parameter sharing a
// (name, in) pair with an operation-level one is dropped since the
// operation-level one wins the conflict.
func mergeParameters(operationLevel, pathLevel []Parameter) []Parameter {
	seen := make(map[string]bool, len(operationLevel))
	for _, p := range operationLevel {
		seen[p.In+":"+p.Name] = true
	}
	merged := append([]Parameter(nil), operationLevel...)
	for _, p := range pathLevel {
		key := p.In + ":" + p.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, p)
	}
	return merged
}

func convertSecurity(reqs *openapi3.SecurityRequirements) []SecurityRequirement {
	if reqs == nil {
		return []SecurityRequirement{}
	}
	out := make([]SecurityRequirement, 0, len(*reqs))
	for _, req := range *reqs {
		item := make(SecurityRequirement, len(req))
		for name, scopes := range req {
			item[name] = scopes
		}
		out = append(out, item)
	}
	return out
}
