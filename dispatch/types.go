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

// Package dispatch orchestrates routing, security, validation, and
// handler resolution for one request
package dispatch

import (
	"log/slog"

	engine "github.com/ngnhng/oapi-engine"
	"github.com/ngnhng/oapi-engine/opindex"
	"github.com/ngnhng/oapi-engine/router"
	"github.com/ngnhng/oapi-engine/validator"
)

// Handler resolves one operation's business logic. It may return a
// non-nil error instead of panicking; HandleRequest never lets a
// handler panic escape (see the recover guard in dispatch.go).
type Handler func(ctx *Context, extra ...any) (any, error)

// SecurityHandler authenticates one security scheme. A truthy return
// value (per truthy below) counts as authenticated; the value itself
// is stored at Security.Schemes[name].
type SecurityHandler func(ctx *Context, extra ...any) any

// Well-known handler names, registered the same way as an operationId
// handler but invoked by the dispatcher itself on routing/validation/
// security fallbacks rather than by operationId lookup.
const (
	NotFound            = "notFound"
	NotImplemented      = "notImplemented"
	MethodNotAllowed    = "methodNotAllowed"
	ValidationFail      = "validationFail"
	UnauthorizedHandler = "unauthorizedHandler"
	PostResponseHandler = "postResponseHandler"
)

// SecurityResult is the outcome of HandleRequest's security step.
// Authorized is true iff at least one of the operation's security
// requirement objects had every one of its schemes return truthy
//; Schemes holds every handler's raw return
// value, keyed by scheme name, including falsy ones.
type SecurityResult struct {
	Authorized bool
	Schemes    map[string]any
}

// Context is threaded through one request's routing, security,
// validation, and handler-resolution steps; handlers read and mutate
// it freely.
type Context struct {
	API        *engine.API
	Request    router.ParsedRequest
	Operation  *opindex.Operation
	Validation validator.Result
	Security   SecurityResult
	Response   any
}

// Options configures a Dispatcher. Handlers and SecurityHandlers seed
// the registry (as if each entry had been passed to Register/
// RegisterSecurityHandler individually); Options is shallow-cloned on
// entry to New so a caller may reuse or freeze it afterward.
type Options struct {
	Handlers         map[string]Handler
	SecurityHandlers map[string]SecurityHandler
	// Validate gates whether HandleRequest runs request validation. It
	// may be a bool, a func(*Context) bool, or nil (treated as true),
	// mirroring validate=true|predicate.
	Validate any
	// Strict governs Register/RegisterSecurityHandler: an unknown
	// handler id or security scheme name returns an error instead of
	// being logged and allowed.
	Strict bool
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	clone := o
	clone.Handlers = make(map[string]Handler, len(o.Handlers))
	for k, v := range o.Handlers {
		clone.Handlers[k] = v
	}
	clone.SecurityHandlers = make(map[string]SecurityHandler, len(o.SecurityHandlers))
	for k, v := range o.SecurityHandlers {
		clone.SecurityHandlers[k] = v
	}
	if clone.Logger == nil {
		clone.Logger = slog.Default()
	}
	return clone
}

func (o Options) shouldValidate(ctx *Context) bool {
	switch v := o.Validate.(type) {
	case nil:
		return true
	case bool:
		return v
	case func(*Context) bool:
		return v(ctx)
	default:
		return true
	}
}

// truthy implements step 4's truthy-return check, matching the
// original engine's JS truthy semantics: nil, false, "", and zero
// numbers are falsy; everything else is truthy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int8:
		return t != 0
	case int16:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case uint:
		return t != 0
	case uint8:
		return t != 0
	case uint16:
		return t != 0
	case uint32:
		return t != 0
	case uint64:
		return t != 0
	case float32:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}
