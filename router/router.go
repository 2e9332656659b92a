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
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ngnhng/oapi-engine/opindex"
)

// ErrNotFound and ErrMethodNotAllowed are the sentinel routing errors
// a strict-mode Router returns from MatchOperation. Dispatch never
// sees these directly: it catches them and routes to a fallback
// handler instead (see package dispatch).
var (
	ErrNotFound         = errors.New("404-notFound")
	ErrMethodNotAllowed = errors.New("405-methodNotAllowed")
)

// Router matches requests against a fixed operation set compiled once
// at engine init.
type Router struct {
	apiRoot string
	ops     []opindex.Operation
	strict  bool

	templates sync.Map // template string -> compiledTemplate
}

// New builds a Router over ops, rooted at apiRoot ("/" if unset). When
// strict is true, MatchOperation returns an error instead of a
// flagged zero Match on a routing miss.
func New(apiRoot string, ops []opindex.Operation, strict bool) *Router {
	if apiRoot == "" {
		apiRoot = "/"
	}
	return &Router{apiRoot: apiRoot, ops: ops, strict: strict}
}

// NormalizeRequest lower-cases the method and normalizes the path; it
// does not mutate req.
func (r *Router) NormalizeRequest(req RawRequest) NormalizedRequest {
	return NormalizedRequest{
		Method:     strings.ToLower(req.Method),
		Path:       normalizePathString(pathWithoutQuery(req.Path)),
		RawRequest: req,
	}
}

// NormalizePath strips the configured apiRoot prefix (with or without
// a trailing slash) from path, leaving the route-relative path.
func (r *Router) NormalizePath(path string) string {
	root := strings.TrimSuffix(r.apiRoot, "/")
	if root == "" {
		return path
	}
	if !strings.HasPrefix(path, root) {
		return path
	}
	rest := strings.TrimPrefix(path, root)
	if rest == "" {
		return "/"
	}
	return rest
}

// MatchOperation matches req to the single best operation: exact path
// match first, then template match ordered by specificity (longest
// literal length, ties by document
// order), 404 if no path matches, 405 if a path matches but no method
// does. In strict mode a miss is returned as an error wrapping
// ErrNotFound/ErrMethodNotAllowed; in non-strict mode a miss returns a
// zero Match with the corresponding flag set and a nil error.
func (r *Router) MatchOperation(req RawRequest) (Match, error) {
	normalized := r.NormalizeRequest(req)

	root := strings.TrimSuffix(r.apiRoot, "/")
	if root != "" && !strings.HasPrefix(normalized.Path, root) {
		if r.strict {
			return Match{}, fmt.Errorf("%w: %s does not start with apiRoot %s", ErrNotFound, normalized.Path, r.apiRoot)
		}
		return Match{NotFound: true}, nil
	}

	routePath := r.NormalizePath(normalized.Path)

	// Exact match first.
	var exact []opindex.Operation
	for _, op := range r.ops {
		if op.Path == routePath {
			exact = append(exact, op)
		}
	}
	if len(exact) > 0 {
		if m, ok := pickMethod(exact, normalized.Method); ok {
			return Match{Operation: &m}, nil
		}
	}

	// Template match, ordered by specificity.
	candidates := r.templateCandidates(routePath)
	if len(candidates) == 0 {
		if r.strict {
			return Match{}, fmt.Errorf("%w: %s", ErrNotFound, routePath)
		}
		return Match{NotFound: true}, nil
	}

	if m, ok := pickMethod(candidates, normalized.Method); ok {
		return Match{Operation: &m}, nil
	}
	if r.strict {
		return Match{}, fmt.Errorf("%w: %s %s", ErrMethodNotAllowed, normalized.Method, routePath)
	}
	return Match{MethodNotAllowed: true}, nil
}

// pickMethod returns the first operation (in ops' order, which
// templateCandidates has already sorted by specificity) whose method
// equals method.
func pickMethod(ops []opindex.Operation, method string) (opindex.Operation, bool) {
	for _, op := range ops {
		if op.Method == method {
			return op, true
		}
	}
	return opindex.Operation{}, false
}

// templateCandidates returns every operation whose path template
// matches routePath, ordered by specificity (length of the template
// with all "{...}" placeholders removed, descending; ties keep
// original index order — achieved with a stable sort).
func (r *Router) templateCandidates(routePath string) []opindex.Operation {
	type scored struct {
		op    opindex.Operation
		score int
		index int
	}
	var matches []scored
	for i, op := range r.ops {
		tmpl := r.compiledTemplate(op.Path)
		if tmpl.regexp.MatchString(routePath) {
			matches = append(matches, scored{op: op, score: tmpl.specificity, index: i})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	out := make([]opindex.Operation, len(matches))
	for i, m := range matches {
		out[i] = m.op
	}
	return out
}
