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

package router

import (
	"testing"

	"github.com/ngnhng/oapi-engine/opindex"
)

func boolPtr(b bool) *bool { return &b }

func sampleOps() []opindex.Operation {
	return []opindex.Operation{
		{Method: "get", Path: "/pets"},
		{Method: "post", Path: "/pets"},
		{Method: "get", Path: "/pets/{id}"},
	}
}

func TestMatchOperation_ExactBeatsTemplate(t *testing.T) {
	ops := append(sampleOps(), opindex.Operation{Method: "get", Path: "/pets/meta"})
	r := New("/", ops, false)

	m, err := r.MatchOperation(RawRequest{Method: "GET", Path: "/pets/meta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Operation == nil || m.Operation.Path != "/pets/meta" {
		t.Fatalf("expected exact match to win over template, got %#v", m.Operation)
	}
}

func TestMatchOperation_TemplateFallback(t *testing.T) {
	r := New("/", sampleOps(), false)
	m, err := r.MatchOperation(RawRequest{Method: "GET", Path: "/pets/meta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Operation == nil || m.Operation.Path != "/pets/{id}" {
		t.Fatalf("expected template match when no exact path is declared, got %#v", m.Operation)
	}
}

func TestMatchOperation_MethodNotAllowed_NonStrict(t *testing.T) {
	r := New("/", sampleOps(), false)
	m, err := r.MatchOperation(RawRequest{Method: "DELETE", Path: "/pets"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.MethodNotAllowed || m.Operation != nil {
		t.Fatalf("expected method-not-allowed match, got %#v", m)
	}
}

func TestMatchOperation_NotFound_Strict(t *testing.T) {
	r := New("/", sampleOps(), true)
	_, err := r.MatchOperation(RawRequest{Method: "GET", Path: "/nope"})
	if err == nil {
		t.Fatalf("expected an error in strict mode")
	}
	if got := err.Error(); len(got) < len("404-notFound") || got[:len("404-notFound")] != "404-notFound" {
		t.Fatalf("expected error to begin with 404-notFound:, got %q", got)
	}
}

func TestMatchOperation_MethodNotAllowed_Strict(t *testing.T) {
	r := New("/", sampleOps(), true)
	_, err := r.MatchOperation(RawRequest{Method: "DELETE", Path: "/pets"})
	if err == nil {
		t.Fatalf("expected an error in strict mode")
	}
	if got := err.Error(); len(got) < len("405-methodNotAllowed") || got[:len("405-methodNotAllowed")] != "405-methodNotAllowed" {
		t.Fatalf("expected error to begin with 405-methodNotAllowed:, got %q", got)
	}
}

func TestNormalizeRequest_Idempotent(t *testing.T) {
	r := New("/", nil, false)
	req := RawRequest{Method: "GET", Path: "/pets/1/?x=1"}
	once := r.NormalizeRequest(req)
	twice := r.NormalizeRequest(RawRequest{Method: once.Method, Path: once.Path})
	if once.Method != twice.Method || once.Path != twice.Path {
		t.Fatalf("NormalizeRequest is not idempotent: %+v vs %+v", once, twice)
	}
}

func TestParseRequest_QueryStyle_FormNoExplode(t *testing.T) {
	r := New("/", nil, false)
	op := &opindex.Operation{
		Path: "/items",
		Parameters: []opindex.Parameter{
			{Name: "a", In: "query", Style: "form", Explode: boolPtr(false)},
		},
	}
	parsed := r.ParseRequest(RawRequest{Method: "GET", Path: "/items?a=1,2,3"}, op)
	arr, ok := parsed.Query["a"].([]any)
	if !ok || len(arr) != 3 || arr[0] != "1" || arr[1] != "2" || arr[2] != "3" {
		t.Fatalf("expected [1 2 3], got %#v", parsed.Query["a"])
	}
}

func TestParseRequest_QueryStyle_SpaceDelimited(t *testing.T) {
	r := New("/", nil, false)
	op := &opindex.Operation{
		Path: "/items",
		Parameters: []opindex.Parameter{
			{Name: "a", In: "query", Style: "spaceDelimited", Explode: boolPtr(false)},
		},
	}
	parsed := r.ParseRequest(RawRequest{Method: "GET", Path: "/items?a=1 2 3"}, op)
	arr, ok := parsed.Query["a"].([]any)
	if !ok || len(arr) != 3 || arr[0] != "1" || arr[1] != "2" || arr[2] != "3" {
		t.Fatalf("expected [1 2 3], got %#v", parsed.Query["a"])
	}
}

func TestParseRequest_PathParams(t *testing.T) {
	r := New("/", nil, false)
	op := &opindex.Operation{Path: "/pets/{id}"}
	parsed := r.ParseRequest(RawRequest{Method: "GET", Path: "/pets/42"}, op)
	if parsed.Params["id"] != "42" {
		t.Fatalf("expected id=42, got %#v", parsed.Params)
	}
}

func TestParseRequest_Cookies(t *testing.T) {
	r := New("/", nil, false)
	parsed := r.ParseRequest(RawRequest{
		Method:  "GET",
		Path:    "/pets",
		Headers: map[string][]string{"Cookie": {"a=1; b=2"}},
	}, nil)
	if parsed.Cookies["a"] != "1" || parsed.Cookies["b"] != "2" {
		t.Fatalf("expected parsed cookies, got %#v", parsed.Cookies)
	}
}

func TestParseRequest_HeadersLowercased(t *testing.T) {
	r := New("/", nil, false)
	parsed := r.ParseRequest(RawRequest{
		Method:  "GET",
		Path:    "/pets",
		Headers: map[string][]string{"X-Request-ID": {"abc"}},
	}, nil)
	if parsed.Headers["x-request-id"] != "abc" {
		t.Fatalf("expected lowercased header key, got %#v", parsed.Headers)
	}
}
