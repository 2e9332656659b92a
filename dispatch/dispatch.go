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
	"fmt"
	"sync"

	engine "github.com/ngnhng/oapi-engine"
	"github.com/ngnhng/oapi-engine/opindex"
	"github.com/ngnhng/oapi-engine/router"
	"github.com/ngnhng/oapi-engine/validator"
)

// Dispatcher orchestrates routing, security, validation, and handler
// resolution for one request It holds no
// per-request state: every call to HandleRequest builds its own
// Context.
type Dispatcher struct {
	api  *engine.API
	opts Options

	mu               sync.RWMutex
	handlers         map[string]Handler
	securityHandlers map[string]SecurityHandler
}

// New builds a Dispatcher over api (which must already be Init'd
// before HandleRequest is called) and opts, shallow-cloning opts so
// the caller's map values are never mutated afterward.
func New(api *engine.API, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		api:              api,
		opts:             opts,
		handlers:         opts.Handlers,
		securityHandlers: opts.SecurityHandlers,
	}
}

// Register adds or replaces the handler for id, which must be either
// a well-known handler name or an operationId declared in the API's
// document. In strict mode an unknown id returns ErrUnknownHandlerID;
// otherwise it is logged and allowed anyway.
func (d *Dispatcher) Register(id string, h Handler) error {
	if err := d.checkHandlerID(id); err != nil {
		if d.opts.Strict {
			return err
		}
		d.opts.Logger.Warn("registering handler for unknown id", "id", id, "error", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[id] = h
	return nil
}

// RegisterSecurityHandler adds or replaces the security handler for
// name, which must be declared under components.securitySchemes. In
// strict mode an unknown name returns ErrUnknownSecurityScheme;
// otherwise it is logged and allowed anyway.
func (d *Dispatcher) RegisterSecurityHandler(name string, h SecurityHandler) error {
	if err := d.checkSecurityScheme(name); err != nil {
		if d.opts.Strict {
			return err
		}
		d.opts.Logger.Warn("registering security handler for unknown scheme", "name", name, "error", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.securityHandlers[name] = h
	return nil
}

func (d *Dispatcher) checkHandlerID(id string) error {
	switch id {
	case NotFound, NotImplemented, MethodNotAllowed, ValidationFail, UnauthorizedHandler, PostResponseHandler:
		return nil
	}
	ops, err := d.api.Operations()
	if err != nil {
		return nil
	}
	if _, ok := opindex.ByID(ops, id); ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownHandlerID, id)
}

func (d *Dispatcher) checkSecurityScheme(name string) error {
	names, err := d.api.SecuritySchemeNames()
	if err != nil {
		return nil
	}
	for _, n := range names {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownSecurityScheme, name)
}

func (d *Dispatcher) handler(id string) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[id]
	return h, ok
}

func (d *Dispatcher) securityHandler(name string) (SecurityHandler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.securityHandlers[name]
	return h, ok
}

// HandleRequest runs req through the full request lifecycle: routing,
// the routing fallback chain, security authorization, request
// validation, handler resolution, and the post-response hook in eight
// ordered steps.
func (d *Dispatcher) HandleRequest(ctx context.Context, req router.RawRequest, extra ...any) (any, error) {
	if !d.api.Initialized() {
		return nil, ErrNotInitialized
	}

	rt, err := d.api.Router()
	if err != nil {
		return nil, err
	}

	// The Router's own strict/non-strict setting governs whether a
	// routing miss comes back as an error or a flagged zero Match;
	// HandleRequest normalizes either shape into the same fallback
	// chain below, since always converts a
	// routing miss into fallback-handler dispatch regardless of the
	// Router's own strictness.
	match, matchErr := rt.MatchOperation(req)
	switch {
	case errors.Is(matchErr, router.ErrNotFound):
		match = router.Match{NotFound: true}
	case errors.Is(matchErr, router.ErrMethodNotAllowed):
		match = router.Match{MethodNotAllowed: true}
	}

	dctx := &Context{
		API:        d.api,
		Validation: validator.Result{Valid: true},
		Security:   SecurityResult{Authorized: true, Schemes: map[string]any{}},
	}

	switch {
	case match.Operation == nil && !match.MethodNotAllowed:
		dctx.Request = rt.ParseRequest(req, nil)
		return d.invokeFallback(dctx, extra, NotFound, NotImplemented)
	case match.MethodNotAllowed:
		dctx.Request = rt.ParseRequest(req, nil)
		return d.invokeFallback(dctx, extra, MethodNotAllowed, NotFound, NotImplemented)
	}

	dctx.Operation = match.Operation
	dctx.Request = rt.ParseRequest(req, match.Operation)

	d.runSecurity(dctx, *match.Operation)
	if !dctx.Security.Authorized {
		if h, ok := d.handler(UnauthorizedHandler); ok {
			return d.invoke(dctx, h, extra)
		}
		// step 5: no handler registered, continue
		// anyway so operations can observe a failed auth themselves.
	}

	if d.opts.shouldValidate(dctx) {
		compiled, verr := d.api.ValidatorFor(match.Operation.OperationID)
		if verr == nil {
			dctx.Validation = compiled.ValidateRequest(dctx.Request, *match.Operation)
		}
		if !dctx.Validation.Valid {
			if h, ok := d.handler(ValidationFail); ok {
				return d.invoke(dctx, h, extra)
			}
		}
	}

	h, ok := d.handler(match.Operation.OperationID)
	if !ok {
		h, ok = d.handler(NotImplemented)
		if !ok {
			return nil, fmt.Errorf("dispatch: no handler registered for operationId %q or %q", match.Operation.OperationID, NotImplemented)
		}
	}
	resp, err := d.invoke(dctx, h, extra)
	if err != nil {
		return resp, err
	}
	dctx.Response = resp

	if post, ok := d.handler(PostResponseHandler); ok {
		return d.invoke(dctx, post, extra)
	}
	return dctx.Response, nil
}

// runSecurity evaluates op.Security's OR-of-ANDs requirement:
// authorized iff at least one requirement object has
// every one of its schemes return truthy. An empty requirement list
// leaves Authorized at its seeded true.
func (d *Dispatcher) runSecurity(dctx *Context, op opindex.Operation) {
	if len(op.Security) == 0 {
		return
	}

	authorized := false
	for _, requirement := range op.Security {
		allTruthy := true
		for scheme := range requirement {
			h, ok := d.securityHandler(scheme)
			if !ok {
				dctx.Security.Schemes[scheme] = nil
				allTruthy = false
				continue
			}
			result := h(dctx)
			dctx.Security.Schemes[scheme] = result
			if !truthy(result) {
				allTruthy = false
			}
		}
		if allTruthy {
			authorized = true
		}
	}
	dctx.Security.Authorized = authorized
}

// invokeFallback tries each candidate handler name in order, invoking
// the first one registered; if none is registered it returns a plain
// error describing the routing miss.
func (d *Dispatcher) invokeFallback(dctx *Context, extra []any, names ...string) (any, error) {
	for _, name := range names {
		if h, ok := d.handler(name); ok {
			return d.invoke(dctx, h, extra)
		}
	}
	return nil, fmt.Errorf("dispatch: no handler registered for any of %v", names)
}

// invoke calls h, converting a panic into an error result instead of
// letting it escape — grounded on modules/middleware/recovery.go's
// defer/recover-and-log pattern, generalized from an HTTP middleware
// boundary to a handler-invocation boundary.
func (d *Dispatcher) invoke(dctx *Context, h Handler, extra []any) (resp any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d.opts.Logger.Error("panic in handler", "panic", rec)
			if recErr, ok := rec.(error); ok {
				err = fmt.Errorf("dispatch: handler panicked: %w", recErr)
				return
			}
			err = fmt.Errorf("dispatch: handler panicked: %v", rec)
		}
	}()
	return h(dctx, extra...)
}
