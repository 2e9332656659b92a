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

// Package engine composes the Definition Loader, Operation Index,
// Router, Validator Builder, and Mock Engine into the public facade
// type API, mirroring the request flow: Router.Normalize →
// Router.Match → Router.Parse → Validator.ValidateRequest → handler.
// Dispatching requests to caller-supplied handlers is package
// engine/dispatch's job, kept separate so this package never needs to
// import it back.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ngnhng/oapi-engine/document"
	enginefs "github.com/ngnhng/oapi-engine/fs"
	"github.com/ngnhng/oapi-engine/opindex"
	"github.com/ngnhng/oapi-engine/router"
	"github.com/ngnhng/oapi-engine/validator"
)

// API is the engine's public facade. It is built with New and becomes
// usable only after Init completes successfully; calling any other
// method before that returns ErrNotInitialized.
type API struct {
	opts   Options
	fsys   enginefs.FS
	loader *document.Loader

	initialized atomic.Bool

	doc        *document.Document
	operations []opindex.Operation
	router     *router.Router
	validators map[string]validator.Compiled
}

// New constructs an API with opts shallow-defaulted (APIRoot, Logger);
// callers must still call Init before using it.
func New(opts Options) *API {
	return &API{opts: opts.withDefaults(), fsys: enginefs.LocalFS{}, loader: document.NewLoader()}
}

// Initialized reports whether Init has completed successfully. Safe
// for concurrent use with Init and every other API method.
func (a *API) Initialized() bool { return a.initialized.Load() }

// Init loads and (unless Quick) validates the configured document,
// builds the Operation Index, the Router, and a validator.Compiled per
// operationId. A document that fails to load (invalid document,
// unresolvable $ref) is always returned as an error, whatever Strict
// says. A validator compile failure is returned when Strict; otherwise
// it is logged via Options.Logger and that operation is simply left out
// of the validators map, so requests to it validate trivially true.
func (a *API) Init(ctx context.Context) error {
	doc, err := a.loader.Load(ctx, a.fsys, a.opts.Definition, a.opts.Quick)
	if err != nil {
		return fmt.Errorf("engine: load document: %w", err)
	}
	a.doc = doc

	a.operations = opindex.Build(doc.Raw)
	a.router = router.New(a.opts.APIRoot, a.operations, a.opts.Strict)

	validators := make(map[string]validator.Compiled, len(a.operations))
	for _, op := range a.operations {
		if op.OperationID == "" {
			continue
		}
		compiled, err := validator.Build(op)
		if err != nil {
			err = fmt.Errorf("engine: compile validators for %q: %w", op.OperationID, err)
			if a.opts.Strict {
				return err
			}
			a.opts.Logger.Warn("skipping operation with invalid schema", "operationId", op.OperationID, "error", err)
			continue
		}
		validators[op.OperationID] = compiled
	}
	a.validators = validators

	a.initialized.Store(true)
	return nil
}

// Operations returns the flattened operation list built by Init.
func (a *API) Operations() ([]opindex.Operation, error) {
	if !a.Initialized() {
		return nil, ErrNotInitialized
	}
	return a.operations, nil
}

// OperationByID looks up a single operation by operationId.
func (a *API) OperationByID(id string) (opindex.Operation, error) {
	if !a.Initialized() {
		return opindex.Operation{}, ErrNotInitialized
	}
	op, ok := opindex.ByID(a.operations, id)
	if !ok {
		return opindex.Operation{}, ErrUnknownOperation
	}
	return op, nil
}

// Router returns the compiled Router built by Init.
func (a *API) Router() (*router.Router, error) {
	if !a.Initialized() {
		return nil, ErrNotInitialized
	}
	return a.router, nil
}

// ValidatorFor returns the compiled validator.Compiled for operationId.
func (a *API) ValidatorFor(operationID string) (validator.Compiled, error) {
	if !a.Initialized() {
		return validator.Compiled{}, ErrNotInitialized
	}
	compiled, ok := a.validators[operationID]
	if !ok {
		return validator.Compiled{}, ErrUnknownOperation
	}
	return compiled, nil
}

// SecuritySchemeNames returns the document's declared
// components.securitySchemes names, for dispatch's strict-mode
// RegisterSecurityHandler existence check.
func (a *API) SecuritySchemeNames() ([]string, error) {
	if !a.Initialized() {
		return nil, ErrNotInitialized
	}
	if a.doc.Raw.Components == nil {
		return nil, nil
	}
	names := make([]string, 0, len(a.doc.Raw.Components.SecuritySchemes))
	for name := range a.doc.Raw.Components.SecuritySchemes {
		names = append(names, name)
	}
	return names, nil
}
