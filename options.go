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

package engine

import "log/slog"

// Options configures API.Init. Unlike examples/petstore's own process
// configuration (loaded via caarlos0/env), Options is a plain struct
// the library never parses from the environment itself.
type Options struct {
	// Definition is the OpenAPI document: a map[string]any (already
	// decoded), []byte (raw JSON/YAML), a file path, or an "http(s)://"
	// URL.
	Definition any
	// APIRoot is stripped from incoming request paths before routing;
	// defaults to "/".
	APIRoot string
	// Strict governs whether a validator compile failure at Init is
	// returned instead of logged-and-swallowed (a document that fails
	// to load is returned in either mode), and whether
	// Router.MatchOperation returns an error for an unmatched request
	// instead of a nil-operation Match.
	Strict bool
	// Quick skips document validation in Init, returning as soon as
	// $ref dereferencing completes.
	Quick bool
	// Logger receives contract-compile warnings in non-strict mode.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.APIRoot == "" {
		o.APIRoot = "/"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
