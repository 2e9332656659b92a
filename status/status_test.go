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

package status

import "testing"

func sampleMap() Map {
	return NewMap(
		[]string{"200", "401", "4XX", "400", "default"},
		map[string]any{
			"200":     "OK",
			"401":     "U",
			"4XX":     "E",
			"400":     "B",
			"default": "D",
		},
	)
}

func TestFindMatch(t *testing.T) {
	m := sampleMap()

	tests := []struct {
		name string
		code int
		want any
	}{
		{"exact beats pattern", 400, "B"},
		{"pattern for undeclared 4xx", 403, "E"},
		{"pattern beats default", 402, "E"},
		{"falls through to default", 500, "D"},
		{"out of range skips straight to default", 999, "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindMatch(tt.code, m)
			if !ok {
				t.Fatalf("FindMatch(%d) ok=false, want match", tt.code)
			}
			if got != tt.want {
				t.Fatalf("FindMatch(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestFindMatch_ExplicitNilStillCounts(t *testing.T) {
	m := NewMap([]string{"204"}, map[string]any{"204": nil})
	v, ok := FindMatch(204, m)
	if !ok {
		t.Fatalf("expected explicit nil value to still report ok=true")
	}
	if v != nil {
		t.Fatalf("expected nil value, got %v", v)
	}
}

func TestFindMatch_NoMatch(t *testing.T) {
	m := NewMap([]string{"200"}, map[string]any{"200": "OK"})
	_, ok := FindMatch(404, m)
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestFindDefaultMatch(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		values     map[string]any
		wantStatus int
		wantValue  any
	}{
		{
			name:       "lowest exact 2xx wins",
			keys:       []string{"201", "200", "404"},
			values:     map[string]any{"201": "created", "200": "ok", "404": "nf"},
			wantStatus: 200,
			wantValue:  "ok",
		},
		{
			name:       "falls back to 2XX pattern",
			keys:       []string{"2XX", "404"},
			values:     map[string]any{"2XX": "any2xx", "404": "nf"},
			wantStatus: 200,
			wantValue:  "any2xx",
		},
		{
			name:       "falls back to default",
			keys:       []string{"404", "default"},
			values:     map[string]any{"404": "nf", "default": "d"},
			wantStatus: 200,
			wantValue:  "d",
		},
		{
			name:       "falls back to first key in declaration order",
			keys:       []string{"404", "500"},
			values:     map[string]any{"404": "nf", "500": "se"},
			wantStatus: 404,
			wantValue:  "nf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMap(tt.keys, tt.values)
			status, value, ok := FindDefaultMatch(m)
			if !ok {
				t.Fatalf("expected a match")
			}
			if status != tt.wantStatus || value != tt.wantValue {
				t.Fatalf("FindDefaultMatch() = (%d, %v), want (%d, %v)", status, value, tt.wantStatus, tt.wantValue)
			}
		})
	}
}

func TestFindDefaultMatch_Empty(t *testing.T) {
	_, _, ok := FindDefaultMatch(Map{})
	if ok {
		t.Fatalf("expected no match for empty map")
	}
}
