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

package mock

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ngnhng/oapi-engine/opindex"
)

const testDoc = `
openapi: 3.0.0
info: {title: t, version: "1"}
paths:
  /pets:
    post:
      operationId: createPet
      responses:
        "201":
          description: created
          content:
            application/json:
              schema:
                type: object
                properties:
                  id: {type: integer, minimum: 1}
                  name: {type: string, example: "Garfield"}
  /pets/{id}:
    get:
      operationId: getPet
      responses:
        "200":
          description: ok
          content:
            application/json:
              example: {id: 7, name: "Nermal"}
        "404":
          description: not found
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

func TestResponseForOperation_SchemaInstantiation(t *testing.T) {
	op := loadOperation(t, "createPet")
	code, value, err := ResponseForOperation(op, MockOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 201 {
		t.Fatalf("expected status 201, got %d", code)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("expected object mock, got %#v", value)
	}
	if obj["id"] != 1 {
		t.Fatalf("expected id=1 (schema minimum), got %#v", obj["id"])
	}
	if obj["name"] != "Garfield" {
		t.Fatalf("expected name=Garfield (schema example), got %#v", obj["name"])
	}
}

func TestResponseForOperation_MediaExampleShortCircuit(t *testing.T) {
	op := loadOperation(t, "getPet")
	code, value, err := ResponseForOperation(op, MockOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 200 {
		t.Fatalf("expected default status to pick the lowest 2xx, got %d", code)
	}
	obj, ok := value.(map[string]any)
	if !ok || obj["name"] != "Nermal" {
		t.Fatalf("expected the declared media example verbatim, got %#v", value)
	}
}

func TestResponseForOperation_ExplicitCode(t *testing.T) {
	op := loadOperation(t, "getPet")
	code, value, err := ResponseForOperation(op, MockOptions{Code: 404})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 404 {
		t.Fatalf("expected status 404, got %d", code)
	}
	if value != nil {
		t.Fatalf("expected no mock value for a response with no content, got %#v", value)
	}
}

func TestResponseForOperation_NoResponses(t *testing.T) {
	_, _, err := ResponseForOperation(opindex.Operation{}, MockOptions{})
	if err != ErrNoResponses {
		t.Fatalf("expected ErrNoResponses, got %v", err)
	}
}
