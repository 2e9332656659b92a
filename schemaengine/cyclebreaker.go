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

// Package schemaengine adapts the engine's synthesized JSON Schemas to
// an external schema engine (github.com/getkin/kin-openapi/openapi3),
// and breaks reference cycles in schema graphs before handing them to
// it — an OpenAPI document's dereferenced schemas can be genuinely
// self-referential in memory (a Node.children property whose items
// $ref points back to Node), and some JSON Schema tooling chokes on
// that even though the data it ever validates is finite.
package schemaengine

import "strconv"

// BreakCycles deep-clones v, a tree built only of map[string]any,
// []any, and scalars (the shape produced by decoding JSON), replacing
// any object or array that has already been visited by its first
// occurrence's JSON pointer, relative to the synthetic root "#". A
// revisit is detected by identity (the same *map[string]any or *[]any
// backing value), not by equality, so two structurally identical but
// independently-allocated maps are both cloned in full.
//
// Primitives, and any value that is not map[string]any or []any, pass
// through unmodified — there is nothing to break a cycle through.
func BreakCycles(v any) any {
	return breakCycles(v, "#", make(map[uintptr]string))
}

func breakCycles(v any, path string, seen map[uintptr]string) any {
	switch val := v.(type) {
	case map[string]any:
		id := mapIdentity(val)
		if prior, ok := seen[id]; ok {
			return map[string]any{"$ref": prior}
		}
		seen[id] = path
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = breakCycles(child, path+"/"+k, seen)
		}
		return out
	case []any:
		if len(val) == 0 {
			// Every empty slice reports the same backing address, and an
			// empty slice cannot close a cycle, so it is never tracked.
			return []any{}
		}
		id := sliceIdentity(val)
		if prior, ok := seen[id]; ok {
			return map[string]any{"$ref": prior}
		}
		seen[id] = path
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = breakCycles(child, path+"/"+strconv.Itoa(i), seen)
		}
		return out
	default:
		return v
	}
}
