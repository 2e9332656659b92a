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

// Package status resolves a numeric HTTP status code against a keyed
// map whose keys may be exact codes ("404"), wildcard range patterns
// ("4XX"), or the literal "default" — the same three-tier lookup the
// OpenAPI responses object uses to let a document describe a status
// family without enumerating every member.
package status

import "strconv"

// Map is an insertion-ordered set of status keys and their values, as
// declared in an OpenAPI `responses` object. Go's map type does not
// preserve iteration order, and FindDefaultMatch's tie-break ("the
// first key in insertion order") depends on document order, so callers
// build a Map instead of handing in a bare map[string]any.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap builds a Map from an ordered slice of keys and their values.
// Duplicate keys keep the first occurrence's position but the last
// occurrence's value, matching how a later declaration would shadow an
// earlier one while being parsed.
func NewMap(keys []string, values map[string]any) Map {
	m := Map{values: make(map[string]any, len(values))}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		m.keys = append(m.keys, k)
	}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Keys returns the keys in declaration order.
func (m Map) Keys() []string { return m.keys }

// Len reports the number of distinct keys.
func (m Map) Len() int { return len(m.keys) }

// FindMatch resolves code against m: exact key first (its mere
// presence counts, even if the stored value is nil), then the
// "<digit>XX" pattern for code's hundreds digit, then "default". A
// code outside 100-599 skips the exact and pattern checks and falls
// straight to "default". ok is false only when nothing matched.
func FindMatch(code int, m Map) (value any, ok bool) {
	if code >= 100 && code <= 599 {
		key := strconv.Itoa(code)
		if v, present := m.values[key]; present {
			return v, true
		}
		patternKey := string(key[0]) + "XX"
		if v, present := m.values[patternKey]; present {
			return v, true
		}
	}
	if v, present := m.values["default"]; present {
		return v, true
	}
	return nil, false
}

// FindDefaultMatch picks a representative response for mocking, in
// order: the numerically lowest exact 2xx code; else "2XX"; else
// "default"; else the first key in declaration order. status is the
// parsed numeric code, defaulting to 200 for the "2XX"/"default"
// cases since neither names a concrete number.
func FindDefaultMatch(m Map) (code int, value any, ok bool) {
	lowest := -1
	for _, k := range m.keys {
		if len(k) != 3 || k[0] != '2' {
			continue
		}
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if lowest == -1 || n < lowest {
			lowest = n
		}
	}
	if lowest != -1 {
		return lowest, m.values[strconv.Itoa(lowest)], true
	}
	if v, present := m.values["2XX"]; present {
		return 200, v, true
	}
	if v, present := m.values["default"]; present {
		return 200, v, true
	}
	if len(m.keys) > 0 {
		first := m.keys[0]
		n, err := strconv.Atoi(first)
		if err != nil {
			n = 200
		}
		return n, m.values[first], true
	}
	return 0, nil, false
}
