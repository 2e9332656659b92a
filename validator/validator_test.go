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
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ngnhng/oapi-engine/opindex"
	"github.com/ngnhng/oapi-engine/router"
)

const testDoc = `
openapi: 3.0.0
info: {title: t, version: "1"}
paths:
  /pets:
    get:
      operationId: listPets
      parameters:
        - name: tag
          in: query
          required: false
          schema: {type: array, items: {type: string}}
          style: form
          explode: false
      responses:
        "200":
          description: ok
          headers:
            X-Rate-Limit:
              required: true
              schema: {type: integer}
          content:
            application/json:
              schema:
                type: object
                required: [id]
                properties:
                  id: {type: integer}
                  name: {type: string}
    post:
      operationId: createPet
      parameters:
        - name: id
          in: path
          required: true
          schema: {type: string}
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                name: {type: string}
      responses:
        "201":
          description: created
          content:
            application/json:
              schema:
                type: object
                properties:
                  id: {type: integer}
`

func loadOperation(t *testing.T, id string) opindex.Operation {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(testDoc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	ops := opindex.Build(doc)
	op, ok := opindex.ByID(ops, id)
	if !ok {
		t.Fatalf("operation %q not found", id)
	}
	return op
}

func TestBuild_CompilesRequestAndResponseValidators(t *testing.T) {
	op := loadOperation(t, "createPet")
	compiled, err := Build(op)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(compiled.RequestValidators) != 2 {
		t.Fatalf("expected body+params validators, got %d", len(compiled.RequestValidators))
	}
	if compiled.ResponseValidator == nil {
		t.Fatalf("expected a combined oneOf response validator")
	}
}

func TestValidateRequest_MissingRequiredBodyField(t *testing.T) {
	op := loadOperation(t, "createPet")
	compiled, err := Build(op)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	parsed := router.ParsedRequest{
		Params:      map[string]string{"id": "1"},
		RequestBody: map[string]any{},
	}
	result := compiled.ValidateRequest(parsed, op)
	if result.Valid {
		t.Fatalf("expected invalid result for missing required body field")
	}
}

func TestValidateRequest_ValidBodyAndParams(t *testing.T) {
	op := loadOperation(t, "createPet")
	compiled, err := Build(op)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	parsed := router.ParsedRequest{
		Params:      map[string]string{"id": "1"},
		RequestBody: map[string]any{"name": "Garfield"},
	}
	result := compiled.ValidateRequest(parsed, op)
	if !result.Valid {
		t.Fatalf("expected valid result, got errors: %#v", result.Errors)
	}
}

func TestValidateRequest_SingularQueryArrayCoercion(t *testing.T) {
	op := loadOperation(t, "listPets")
	compiled, err := Build(op)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	parsed := router.ParsedRequest{
		Query: map[string]any{"tag": "friendly"},
	}
	result := compiled.ValidateRequest(parsed, op)
	if !result.Valid {
		t.Fatalf("expected singular query value coerced into an array, got errors: %#v", result.Errors)
	}
}

func TestValidateRequest_BodyParseFailureYieldsSyntheticError(t *testing.T) {
	op := loadOperation(t, "createPet")
	compiled, err := Build(op)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	parsed := router.ParsedRequest{
		Params:      map[string]string{"id": "1"},
		RequestBody: "{not json",
	}
	result := compiled.ValidateRequest(parsed, op)
	if result.Valid {
		t.Fatalf("expected invalid result for unparsable body")
	}
	found := false
	for _, e := range result.Errors {
		if e.Keyword == "parse" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a synthetic parse error, got %#v", result.Errors)
	}
}

func TestValidateResponse_StatusBasedAndOneOf(t *testing.T) {
	op := loadOperation(t, "createPet")
	compiled, err := Build(op)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	code := 201
	result := compiled.ValidateResponse(map[string]any{"id": float64(1)}, &code)
	if !result.Valid {
		t.Fatalf("expected valid status-based response, got errors: %#v", result.Errors)
	}

	result = compiled.ValidateResponse(map[string]any{"id": float64(1)}, nil)
	if !result.Valid {
		t.Fatalf("expected valid combined oneOf response, got errors: %#v", result.Errors)
	}
}

func TestValidateResponseHeaders_LowercasedAndFlavors(t *testing.T) {
	op := loadOperation(t, "listPets")
	compiled, err := Build(op)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	code := 200

	superset := compiled.ValidateResponseHeaders(map[string]string{}, &code, Superset)
	if superset.Valid {
		t.Fatalf("expected Superset to require the declared X-Rate-Limit header")
	}

	any_ := compiled.ValidateResponseHeaders(map[string]string{}, &code, Any)
	if !any_.Valid {
		t.Fatalf("expected Any to tolerate a missing declared header, got errors: %#v", any_.Errors)
	}

	exact := compiled.ValidateResponseHeaders(map[string]string{"X-Rate-Limit": "5"}, &code, Exact)
	if !exact.Valid {
		t.Fatalf("expected Exact to accept the declared header set, got errors: %#v", exact.Errors)
	}
}

func TestValidateResponseHeaders_UnknownSetMatchTypePanics(t *testing.T) {
	op := loadOperation(t, "listPets")
	compiled, err := Build(op)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for an unknown SetMatchType")
		}
	}()
	code := 200
	compiled.ValidateResponseHeaders(map[string]string{}, &code, SetMatchType(99))
}
