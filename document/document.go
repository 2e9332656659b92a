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

// Package document adapts github.com/getkin/kin-openapi/openapi3 into
// the engine's Definition Loader: it accepts a document in whichever
// shape a caller has it (already-decoded object, raw bytes, a file
// path, or a URL) and returns a fully $ref-dereferenced *openapi3.T,
// caching by source key the way middleware/validation.go's specCache
// avoided re-parsing the same path on every request — scoped to one
// Loader instance rather than the whole process, since the registry
// is per-engine-instance.
package document

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	enginefs "github.com/ngnhng/oapi-engine/fs"
)

// Document wraps a loaded, dereferenced OpenAPI document. Downstream
// components (opindex, validator, mock) hold borrowed read-only
// references into Raw's schema tree; nothing mutates it after Load
// returns.
type Document struct {
	Raw *openapi3.T
}

// Loader caches loaded documents by source key. Each API instance owns
// its own Loader (see engine.New), so two unrelated instances loading
// the same cache key never observe each other's cached document.
type Loader struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

// NewLoader returns a Loader with an empty cache.
func NewLoader() *Loader {
	return &Loader{cache: make(map[string]*cacheEntry)}
}

type cacheEntry struct {
	doc *openapi3.T
	err error
}

// Load resolves definition into a Document. definition may be:
//   - map[string]any or []byte: an already-decoded or raw JSON/YAML document
//   - a string beginning with "http://" or "https://": loaded by URL
//   - any other string: treated as a file path, read through fsys
//
// quick mirrors Options.quick: when true, Load skips
// doc.Validate, returning the dereferenced-but-unvalidated document
// immediately.
func (l *Loader) Load(ctx context.Context, fsys enginefs.FS, definition any, quick bool) (*Document, error) {
	key, err := cacheKey(definition)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	if entry, ok := l.cache[key]; ok {
		l.mu.RUnlock()
		if entry.err != nil {
			return nil, entry.err
		}
		return &Document{Raw: entry.doc}, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.cache[key]; ok {
		if entry.err != nil {
			return nil, entry.err
		}
		return &Document{Raw: entry.doc}, nil
	}

	doc, err := load(fsys, definition)
	if err != nil {
		l.cache[key] = &cacheEntry{err: err}
		return nil, err
	}

	if !quick {
		if err := doc.Validate(ctx); err != nil {
			err = fmt.Errorf("document: validate: %w", err)
			l.cache[key] = &cacheEntry{err: err}
			return nil, err
		}
	}

	l.cache[key] = &cacheEntry{doc: doc}
	return &Document{Raw: doc}, nil
}

func load(fsys enginefs.FS, definition any) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	switch def := definition.(type) {
	case map[string]any:
		data, err := json.Marshal(def)
		if err != nil {
			return nil, fmt.Errorf("document: marshal object definition: %w", err)
		}
		return loader.LoadFromData(data)
	case []byte:
		return loader.LoadFromData(def)
	case string:
		if strings.HasPrefix(def, "http://") || strings.HasPrefix(def, "https://") {
			u, err := url.Parse(def)
			if err != nil {
				return nil, fmt.Errorf("document: parse URL %q: %w", def, err)
			}
			return loader.LoadFromURI(u)
		}
		data, err := fsys.ReadFile(def)
		if err != nil {
			return nil, fmt.Errorf("document: read %q: %w", def, err)
		}
		return loader.LoadFromData(data)
	default:
		return nil, fmt.Errorf("document: unsupported definition type %T", definition)
	}
}

func cacheKey(definition any) (string, error) {
	switch def := definition.(type) {
	case string:
		return "path:" + def, nil
	case []byte:
		return "bytes:" + string(def), nil
	case map[string]any:
		data, err := json.Marshal(def)
		if err != nil {
			return "", fmt.Errorf("document: marshal object definition: %w", err)
		}
		return "object:" + string(data), nil
	default:
		return "", fmt.Errorf("document: unsupported definition type %T", definition)
	}
}
