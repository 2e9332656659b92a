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
	"regexp"
	"strings"
)

// placeholder matches a single "{name}" path-template segment.
var placeholder = regexp.MustCompile(`\{[^/{}]+\}`)

// compiledTemplate is a path template's anchored matching regexp plus
// its specificity score, cached so the same template string never
// gets recompiled on a later request.
type compiledTemplate struct {
	regexp      *regexp.Regexp
	specificity int
}

// compiledTemplate looks up (compiling and caching on first use) the
// regexp and specificity score for a path template, the same
// compile-once-cache-forever shape as a gorilla/mux-style router's
// regexp cache: a template is recompiled at most once per Router, no
// matter how many requests are matched against it.
func (r *Router) compiledTemplate(tmpl string) compiledTemplate {
	if v, ok := r.templates.Load(tmpl); ok {
		return v.(compiledTemplate)
	}
	built := buildTemplate(tmpl)
	actual, _ := r.templates.LoadOrStore(tmpl, built)
	return actual.(compiledTemplate)
}

func buildTemplate(tmpl string) compiledTemplate {
	return compiledTemplate{
		regexp:      regexp.MustCompile(anchoredPattern(tmpl)),
		specificity: len(placeholder.ReplaceAllString(tmpl, "")),
	}
}

// anchoredPattern quotes every literal run of a template and replaces
// each "{name}" placeholder with a non-slash capture, then anchors the
// whole thing — regexp.QuoteMeta can't be applied to the template as a
// whole first because it would also escape the braces we need to
// recognize as placeholders.
func anchoredPattern(tmpl string) string {
	var b strings.Builder
	b.WriteString("^")
	rest := tmpl
	for {
		loc := placeholder.FindStringIndex(rest)
		if loc == nil {
			b.WriteString(regexp.QuoteMeta(rest))
			break
		}
		b.WriteString(regexp.QuoteMeta(rest[:loc[0]]))
		b.WriteString(`[^/]+`)
		rest = rest[loc[1]:]
	}
	b.WriteString("$")
	return b.String()
}
