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

package dispatch

import (
	"context"
	"errors"
	"testing"

	engine "github.com/ngnhng/oapi-engine"
	"github.com/ngnhng/oapi-engine/router"
)

const testDoc = `
openapi: 3.0.0
info: {title: t, version: "1"}
components:
  securitySchemes:
    apiKey: {type: apiKey, in: header, name: X-Api-Key}
    basicAuth: {type: http, scheme: basic}
paths:
  /pets:
    get:
      operationId: listPets
      security:
        - apiKey: []
        - basicAuth: []
      responses:
        "200": {description: ok}
    post:
      operationId: createPet
      responses:
        "201": {description: created}
  /pets/{id}:
    get:
      operationId: getPet
      security:
        - basicAuth: []
      responses:
        "200": {description: ok}
`

func newTestAPI(t *testing.T) *engine.API {
	t.Helper()
	api := engine.New(engine.Options{Definition: []byte(testDoc), Quick: true})
	if err := api.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return api
}

// TestHandleRequest_SecurityORofANDs covers the OR-of-ANDs security
// scenario: listPets declares two single-scheme requirement
// objects (apiKey, basicAuth); authorization succeeds if either one's
// handler returns truthy, and the raw return value is recorded under
// Security.Schemes.
func TestHandleRequest_SecurityORofANDs(t *testing.T) {
	api := newTestAPI(t)
	d := New(api, Options{})

	if err := d.RegisterSecurityHandler("apiKey", func(*Context, ...any) any { return nil }); err != nil {
		t.Fatalf("RegisterSecurityHandler(apiKey): %v", err)
	}
	if err := d.RegisterSecurityHandler("basicAuth", func(*Context, ...any) any { return 1 }); err != nil {
		t.Fatalf("RegisterSecurityHandler(basicAuth): %v", err)
	}

	var seen *Context
	if err := d.Register("listPets", func(ctx *Context, _ ...any) (any, error) {
		seen = ctx
		return "ok", nil
	}); err != nil {
		t.Fatalf("Register(listPets): %v", err)
	}

	resp, err := d.HandleRequest(context.Background(), router.RawRequest{Method: "GET", Path: "/pets"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("expected handler response %q, got %#v", "ok", resp)
	}
	if seen == nil || !seen.Security.Authorized {
		t.Fatalf("expected authorized=true when basicAuth's handler returns truthy, got %#v", seen.Security)
	}
	if v, ok := seen.Security.Schemes["basicAuth"]; !ok || v != 1 {
		t.Fatalf("expected Security.Schemes[basicAuth] = 1, got %#v", seen.Security.Schemes)
	}
}

// TestHandleRequest_SecurityAllFalsy covers the negative half of
// scenario 5: a single-scheme requirement whose handler returns a
// falsy value (nil) leaves the request unauthorized.
func TestHandleRequest_SecurityAllFalsy(t *testing.T) {
	api := newTestAPI(t)
	d := New(api, Options{})

	if err := d.RegisterSecurityHandler("basicAuth", func(*Context, ...any) any { return nil }); err != nil {
		t.Fatalf("RegisterSecurityHandler: %v", err)
	}

	var seen *Context
	if err := d.Register("getPet", func(ctx *Context, _ ...any) (any, error) {
		seen = ctx
		return "ok", nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := d.HandleRequest(context.Background(), router.RawRequest{Method: "GET", Path: "/pets/1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == nil || seen.Security.Authorized {
		t.Fatalf("expected authorized=false, got %#v", seen.Security)
	}
}

// TestHandleRequest_UnauthorizedHandlerShortCircuits verifies that a
// registered unauthorizedHandler runs instead of the operation handler
// when security fails.
func TestHandleRequest_UnauthorizedHandlerShortCircuits(t *testing.T) {
	api := newTestAPI(t)
	d := New(api, Options{})

	if err := d.RegisterSecurityHandler("basicAuth", func(*Context, ...any) any { return nil }); err != nil {
		t.Fatalf("RegisterSecurityHandler: %v", err)
	}

	called := false
	if err := d.Register(UnauthorizedHandler, func(*Context, ...any) (any, error) {
		called = true
		return "denied", nil
	}); err != nil {
		t.Fatalf("Register(unauthorizedHandler): %v", err)
	}
	if err := d.Register("getPet", func(*Context, ...any) (any, error) {
		t.Fatalf("operation handler must not run when unauthorized")
		return nil, nil
	}); err != nil {
		t.Fatalf("Register(getPet): %v", err)
	}

	resp, err := d.HandleRequest(context.Background(), router.RawRequest{Method: "GET", Path: "/pets/1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || resp != "denied" {
		t.Fatalf("expected unauthorizedHandler to run and its result returned, got %#v, called=%v", resp, called)
	}
}

// TestHandleRequest_MethodNotAllowedFallbackChain covers scenario 2: a
// DELETE against a document declaring only GET/POST /pets falls
// through methodNotAllowed -> notFound -> notImplemented depending on
// what's registered.
func TestHandleRequest_MethodNotAllowedFallbackChain(t *testing.T) {
	tests := []struct {
		name             string
		registerMethod   bool
		registerNotFound bool
		want             string
	}{
		{name: "methodNotAllowed registered wins", registerMethod: true, registerNotFound: true, want: "methodNotAllowed"},
		{name: "falls back to notFound", registerMethod: false, registerNotFound: true, want: "notFound"},
		{name: "falls back to notImplemented", registerMethod: false, registerNotFound: false, want: "notImplemented"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			d := New(api, Options{})

			if tt.registerMethod {
				if err := d.Register(MethodNotAllowed, func(*Context, ...any) (any, error) { return "methodNotAllowed", nil }); err != nil {
					t.Fatalf("Register(methodNotAllowed): %v", err)
				}
			}
			if tt.registerNotFound {
				if err := d.Register(NotFound, func(*Context, ...any) (any, error) { return "notFound", nil }); err != nil {
					t.Fatalf("Register(notFound): %v", err)
				}
			}
			if err := d.Register(NotImplemented, func(*Context, ...any) (any, error) { return "notImplemented", nil }); err != nil {
				t.Fatalf("Register(notImplemented): %v", err)
			}

			resp, err := d.HandleRequest(context.Background(), router.RawRequest{Method: "DELETE", Path: "/pets"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp != tt.want {
				t.Fatalf("expected %q, got %#v", tt.want, resp)
			}
		})
	}
}

// TestHandleRequest_NotFoundFallsBackToNotImplemented exercises a path
// that matches no operation at all (as opposed to MethodNotAllowed's
// path-matches-but-method-doesn't case).
func TestHandleRequest_NotFoundFallsBackToNotImplemented(t *testing.T) {
	api := newTestAPI(t)
	d := New(api, Options{})

	if err := d.Register(NotImplemented, func(*Context, ...any) (any, error) { return "notImplemented", nil }); err != nil {
		t.Fatalf("Register(notImplemented): %v", err)
	}

	resp, err := d.HandleRequest(context.Background(), router.RawRequest{Method: "GET", Path: "/unknown"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "notImplemented" {
		t.Fatalf("expected notImplemented fallback, got %#v", resp)
	}
}

// TestHandleRequest_PostResponseHandlerWrapsResponse verifies step 8:
// a registered postResponseHandler runs after the operation handler
// and its own return value, not the operation handler's, is returned.
func TestHandleRequest_PostResponseHandlerWrapsResponse(t *testing.T) {
	api := newTestAPI(t)
	d := New(api, Options{})

	if err := d.Register("createPet", func(*Context, ...any) (any, error) { return "raw", nil }); err != nil {
		t.Fatalf("Register(createPet): %v", err)
	}
	if err := d.Register(PostResponseHandler, func(ctx *Context, _ ...any) (any, error) {
		return "wrapped:" + ctx.Response.(string), nil
	}); err != nil {
		t.Fatalf("Register(postResponseHandler): %v", err)
	}

	resp, err := d.HandleRequest(context.Background(), router.RawRequest{Method: "POST", Path: "/pets"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "wrapped:raw" {
		t.Fatalf("expected postResponseHandler's wrapped result, got %#v", resp)
	}
}

// TestHandleRequest_PanicRecovered verifies a panicking handler yields
// an error instead of propagating the panic.
func TestHandleRequest_PanicRecovered(t *testing.T) {
	api := newTestAPI(t)
	d := New(api, Options{})

	if err := d.Register("createPet", func(*Context, ...any) (any, error) {
		panic("boom")
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := d.HandleRequest(context.Background(), router.RawRequest{Method: "POST", Path: "/pets"})
	if err == nil {
		t.Fatalf("expected an error from a panicking handler")
	}
}

// TestRegister_StrictUnknownID verifies strict-mode Register rejects
// an id that is neither a well-known handler name nor a declared
// operationId.
func TestRegister_StrictUnknownID(t *testing.T) {
	api := newTestAPI(t)
	d := New(api, Options{Strict: true})

	err := d.Register("noSuchOperation", func(*Context, ...any) (any, error) { return nil, nil })
	if !errors.Is(err, ErrUnknownHandlerID) {
		t.Fatalf("expected ErrUnknownHandlerID, got %v", err)
	}
}

// TestRegister_NonStrictUnknownIDAllowed verifies non-strict Register
// logs and allows an unknown id rather than rejecting it.
func TestRegister_NonStrictUnknownIDAllowed(t *testing.T) {
	api := newTestAPI(t)
	d := New(api, Options{})

	if err := d.Register("noSuchOperation", func(*Context, ...any) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("expected non-strict Register to allow an unknown id, got %v", err)
	}
}

// TestRegisterSecurityHandler_StrictUnknownScheme verifies strict-mode
// RegisterSecurityHandler rejects a name absent from
// components.securitySchemes.
func TestRegisterSecurityHandler_StrictUnknownScheme(t *testing.T) {
	api := newTestAPI(t)
	d := New(api, Options{Strict: true})

	err := d.RegisterSecurityHandler("noSuchScheme", func(*Context, ...any) any { return true })
	if !errors.Is(err, ErrUnknownSecurityScheme) {
		t.Fatalf("expected ErrUnknownSecurityScheme, got %v", err)
	}
}
