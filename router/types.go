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

// Package router matches a normalized request to one compiled
// Operation and decodes its path, query, header, and cookie
// parameters according to their declared style — entirely independent
// of any HTTP framework or transport.
package router

import "github.com/ngnhng/oapi-engine/opindex"

// RawRequest is what a transport adapter hands the engine: headers as
// a multi-value map (mirroring net/http.Header's shape so an adapter
// can pass http.Header through directly), a path that may still carry
// a query string, and a body of whatever shape the transport decoded
// it to (typically []byte, string, or an already-decoded
// map[string]any/[]any).
type RawRequest struct {
	Method  string
	Path    string
	Headers map[string][]string
	// Query, if non-nil, is treated as already-decoded
	// (map[string][]string or map[string]any); if nil, the query
	// string is parsed out of Path instead.
	Query any
	Body  any
}

// NormalizedRequest is RawRequest after Router.NormalizeRequest: a
// lower-cased method and a path with its query string stripped,
// trailing slashes removed, and a single leading slash ensured.
type NormalizedRequest struct {
	Method string
	Path   string
	RawRequest
}

// ParsedRequest is the fully decoded request handed to validators and
// handlers.
type ParsedRequest struct {
	Method      string
	Path        string
	Params      map[string]string
	Query       map[string]any
	Headers     map[string]string
	Cookies     map[string]string
	RequestBody any
}

// Match is the result of MatchOperation: the matched operation (nil if
// none, only possible in non-strict mode) and whether the failure, if
// any, was a path miss (404) or a method miss at a matched path (405).
type Match struct {
	Operation        *opindex.Operation
	NotFound         bool
	MethodNotAllowed bool
}
