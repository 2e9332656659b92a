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
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

func TestBreakCycles_SelfReferentialMap(t *testing.T) {
	node := map[string]any{"name": "root"}
	node["children"] = []any{node} // direct cycle

	broken := BreakCycles(node)

	// A cyclic structure can never be marshaled; termination is the point.
	data, err := json.Marshal(broken)
	if err != nil {
		t.Fatalf("expected broken structure to serialize, got error: %v", err)
	}

	var roundTrip map[string]any
	if err := json.Unmarshal(data, &roundTrip); err != nil {
		t.Fatalf("expected valid JSON: %v", err)
	}
	children, ok := roundTrip["children"].([]any)
	if !ok || len(children) != 1 {
		t.Fatalf("expected one child, got %#v", roundTrip["children"])
	}
	child, ok := children[0].(map[string]any)
	if !ok {
		t.Fatalf("expected child to be an object, got %#v", children[0])
	}
	if child["$ref"] != "#" {
		t.Fatalf("expected cyclic child to be replaced with a $ref to root, got %#v", child)
	}
}

func TestBreakCycles_AcyclicTreeUnaffected(t *testing.T) {
	tree := map[string]any{
		"a": map[string]any{"b": "c"},
		"d": []any{1, "two", true},
	}
	broken := BreakCycles(tree)
	data, err := json.Marshal(broken)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["a"].(map[string]any)["b"] != "c" {
		t.Fatalf("expected acyclic tree to round-trip unchanged, got %#v", got)
	}
}

func TestBreakCycles_SharedButNotCyclicSubtreeIsClonedOnceThenReferenced(t *testing.T) {
	shared := map[string]any{"x": 1}
	tree := map[string]any{"a": shared, "b": shared}
	broken := BreakCycles(tree).(map[string]any)

	// Map iteration order is unspecified, so whichever of "a"/"b" is
	// visited first keeps the literal value; the other becomes a $ref
	// to it. This matches identity-based (not structural)
	// revisit detection: the same backing map, referenced twice, is
	// cloned only once.
	a, aIsRef := broken["a"].(map[string]any)["$ref"]
	b, bIsRef := broken["b"].(map[string]any)["$ref"]
	if aIsRef == bIsRef {
		t.Fatalf("expected exactly one of a/b to be a $ref, got a=%#v b=%#v", broken["a"], broken["b"])
	}
	if aIsRef && a != "#/b" {
		t.Fatalf("expected a to $ref b, got %v", a)
	}
	if bIsRef && b != "#/a" {
		t.Fatalf("expected b to $ref a, got %v", b)
	}
}

func TestToSchemaMap_BreaksSelfReferentialSchema(t *testing.T) {
	nodeSchema := openapi3.NewObjectSchema()
	nodeSchema.Properties = openapi3.Schemas{
		"name": openapi3.NewStringSchema().NewRef(),
	}
	nodeRef := &openapi3.SchemaRef{Value: nodeSchema}
	// children: array of Node (self-reference)
	childrenSchema := openapi3.NewArraySchema()
	childrenSchema.Items = nodeRef
	nodeSchema.Properties["children"] = &openapi3.SchemaRef{Value: childrenSchema}

	m := ToSchemaMap(nodeRef, "#")

	props, ok := m["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties map, got %#v", m)
	}
	children, ok := props["children"].(map[string]any)
	if !ok {
		t.Fatalf("expected children schema, got %#v", props["children"])
	}
	items, ok := children["items"].(map[string]any)
	if !ok {
		t.Fatalf("expected items schema, got %#v", children["items"])
	}
	if items["$ref"] != "#" {
		t.Fatalf("expected self-reference to collapse to root $ref, got %#v", items)
	}

	// The whole thing must still be finite JSON.
	if _, err := json.Marshal(m); err != nil {
		t.Fatalf("expected schema map to serialize: %v", err)
	}
}
