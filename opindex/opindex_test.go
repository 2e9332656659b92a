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

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

const testDoc = `
openapi: 3.0.0
info: {title: t, version: "1"}
paths:
  /pets:
    parameters:
      - name: X-Trace-Id
        in: header
        schema: {type: string}
    get:
      operationId: listPets
      responses: {"200": {description: ok}}
    post:
      operationId: createPet
      security: []
      responses: {"201": {description: created}}
  /pets/{id}:
    get:
      operationId: getPet
      parameters:
        - name: id
          in: path
          required: true
          schema: {type: string}
      responses: {"200": {description: ok}}
security:
  - apiKey: []
`

func loadTestDoc(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(testDoc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return doc
}

func TestBuild_UniqueMethodPathPairs(t *testing.T) {
	ops := Build(loadTestDoc(t))
	seen := make(map[string]bool)
	for _, op := range ops {
		key := op.Method + " " + op.Path
		if seen[key] {
			t.Fatalf("duplicate (method, path) pair: %s", key)
		}
		seen[key] = true
	}
	if len(ops) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(ops))
	}
}

func TestBuild_InheritsPathLevelParameters(t *testing.T) {
	ops := Build(loadTestDoc(t))
	op, ok := ByID(ops, "listPets")
	if !ok {
		t.Fatalf("listPets not found")
	}
	found := false
	for _, p := range op.Parameters {
		if p.Name == "x-trace-id" && p.In == "header" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected inherited path-level header parameter lowercased, got %#v", op.Parameters)
	}
}

func TestBuild_SecurityInheritance(t *testing.T) {
	ops := Build(loadTestDoc(t))

	listPets, _ := ByID(ops, "listPets")
	if len(listPets.Security) != 1 || listPets.Security[0]["apiKey"] == nil {
		t.Fatalf("expected listPets to inherit document security, got %#v", listPets.Security)
	}

	createPet, _ := ByID(ops, "createPet")
	if len(createPet.Security) != 0 {
		t.Fatalf("expected createPet's explicit empty security to override document security, got %#v", createPet.Security)
	}
}

func TestByID_NotFound(t *testing.T) {
	_, ok := ByID(nil, "missing")
	if ok {
		t.Fatalf("expected not found")
	}
}
