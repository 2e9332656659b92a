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
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/ngnhng/oapi-engine/opindex"
)

// ParseRequest decodes req into a ParsedRequest, applying path
// extraction and parameter-style-aware query decoding for op.
func (r *Router) ParseRequest(req RawRequest, op *opindex.Operation) ParsedRequest {
	normalized := r.NormalizeRequest(req)
	routePath := r.NormalizePath(normalized.Path)

	parsed := ParsedRequest{
		Method:  normalized.Method,
		Path:    routePath,
		Headers: lowerHeaders(req.Headers),
		Cookies: parseCookies(firstHeader(req.Headers, "cookie")),
	}

	parsed.RequestBody = parseBody(req.Body)

	if op != nil {
		parsed.Params = extractPathParams(op.Path, routePath)
	} else {
		parsed.Params = map[string]string{}
	}

	parsed.Query = decodeQuery(req, normalized)
	if op != nil {
		applyParameterStyles(parsed.Query, op.Parameters)
	}

	return parsed
}

// parseBody leaves object/array/nil/typed bodies untouched and
// attempts to JSON-decode a non-object body (typically the raw
// []byte/string a transport handed over); a decode failure is left
// as-is so the validator can raise the synthetic "parse" error later.
func parseBody(body any) any {
	switch b := body.(type) {
	case nil, map[string]any, []any:
		return body
	case []byte:
		var out any
		if err := json.Unmarshal(b, &out); err == nil {
			return out
		}
		return body
	case string:
		var out any
		if err := json.Unmarshal([]byte(b), &out); err == nil {
			return out
		}
		return body
	default:
		return body
	}
}

func lowerHeaders(headers map[string][]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}

func firstHeader(headers map[string][]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// parseCookies decodes an RFC 6265 Cookie header ("name=value;
// name=value") into a map.
func parseCookies(header string) map[string]string {
	out := map[string]string{}
	if header == "" {
		return out
	}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return out
}

// decodeQuery returns req.Query deep-cloned into map[string]any if the
// caller already supplied a decoded query, else parses the query
// string out of the original (pre-normalization) path.
func decodeQuery(req RawRequest, normalized NormalizedRequest) map[string]any {
	switch q := req.Query.(type) {
	case map[string]any:
		out := make(map[string]any, len(q))
		for k, v := range q {
			out[k] = v
		}
		return out
	case map[string][]string:
		out := make(map[string]any, len(q))
		for k, v := range q {
			out[k] = cloneStringSlice(v)
		}
		return out
	case url.Values:
		out := make(map[string]any, len(q))
		for k, v := range q {
			out[k] = cloneStringSlice(v)
		}
		return out
	}

	i := strings.IndexByte(req.Path, '?')
	if i < 0 {
		return map[string]any{}
	}
	values, err := url.ParseQuery(req.Path[i+1:])
	if err != nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
			continue
		}
		out[k] = cloneStringSlice(v)
	}
	return out
}

func cloneStringSlice(v []string) []any {
	out := make([]any, len(v))
	for i, s := range v {
		out[i] = s
	}
	return out
}

// extractPathParams matches tmpl's "{name}" placeholders against
// path, returning each captured segment by name.
func extractPathParams(tmpl, path string) map[string]string {
	names, pattern := namedTemplate(tmpl)
	re := regexp.MustCompile(pattern)
	match := re.FindStringSubmatch(path)
	out := map[string]string{}
	if match == nil {
		return out
	}
	for i, name := range names {
		out[name] = match[i+1]
	}
	return out
}

// namedTemplate builds an anchored regexp capturing one named group
// per "{name}" placeholder, plus the ordered list of those names.
func namedTemplate(tmpl string) (names []string, pattern string) {
	var b strings.Builder
	b.WriteString("^")
	rest := tmpl
	for {
		loc := placeholder.FindStringIndex(rest)
		if loc == nil {
			b.WriteString(regexp.QuoteMeta(rest))
			break
		}
		name := rest[loc[0]+1 : loc[1]-1]
		names = append(names, name)
		b.WriteString(regexp.QuoteMeta(rest[:loc[0]]))
		b.WriteString("([^/]+)")
		rest = rest[loc[1]:]
	}
	b.WriteString("$")
	return names, b.String()
}

// applyParameterStyles mutates query in place, applying each query
// parameter's style/explode/content coercion.
func applyParameterStyles(query map[string]any, params []opindex.Parameter) {
	for _, p := range params {
		if p.In != "query" {
			continue
		}
		raw, ok := query[p.Name]
		if !ok {
			continue
		}
		rawStr, isString := raw.(string)

		if p.Content != nil {
			if _, ok := p.Content["application/json"]; ok && isString {
				var decoded any
				if err := json.Unmarshal([]byte(rawStr), &decoded); err == nil {
					query[p.Name] = decoded
				}
			}
			continue
		}

		if p.Explode != nil && !*p.Explode {
			if !isString {
				continue
			}
			switch p.Style {
			case "spaceDelimited":
				rawStr = strings.ReplaceAll(rawStr, "%20", ",")
				rawStr = strings.ReplaceAll(rawStr, " ", ",")
			case "pipeDelimited":
				rawStr = strings.ReplaceAll(rawStr, "%7C", ",")
				rawStr = strings.ReplaceAll(rawStr, "|", ",")
			}
			parts := strings.Split(rawStr, ",")
			arr := make([]any, len(parts))
			for i, s := range parts {
				arr[i] = s
			}
			query[p.Name] = arr
		}
	}
}
