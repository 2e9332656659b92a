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

package validator

import (
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ngnhng/oapi-engine/opindex"
	"github.com/ngnhng/oapi-engine/schemaengine"
	"github.com/ngnhng/oapi-engine/status"
)

// Build compiles every validator family for op. A response status
// declaring no application/json schema simply has no value in
// StatusResponseValidators rather than causing an error; every
// declared status gets a HeaderValidatorSet, built from an empty
// header list when it declares no headers.
func Build(op opindex.Operation) (Compiled, error) {
	var compiled Compiled

	if rb := opindex.RequestBody(op.RequestBody); rb != nil {
		v, err := schemaengine.Compile(schemaengine.BreakCycles(bodySchemaMap(rb)).(map[string]any))
		if err != nil {
			return Compiled{}, err
		}
		compiled.RequestValidators = append(compiled.RequestValidators, v)
	}

	paramsValidator, err := schemaengine.Compile(
		schemaengine.BreakCycles(paramsSchemaMap(op.Parameters)).(map[string]any),
		schemaengine.WithCoercion(true),
	)
	if err != nil {
		return Compiled{}, err
	}
	compiled.RequestValidators = append(compiled.RequestValidators, paramsValidator)

	statusKeys, responseSchemas, headerSets := gatherResponses(op.Responses)

	var jsonKeys []string
	for _, key := range statusKeys {
		if responseSchemas[key] != nil {
			jsonKeys = append(jsonKeys, key)
		}
	}
	if len(jsonKeys) > 0 {
		// Each member's ToSchemaMap root must match its eventual mount
		// point inside the oneOf array ("#/oneOf/i"), not the bare "#"
		// used when a response schema is compiled standalone below: a
		// self-referential response schema's internal $ref must resolve
		// against its own position in the array, not the envelope root.
		members := make([]any, len(jsonKeys))
		for i, key := range jsonKeys {
			members[i] = schemaengine.ToSchemaMap(responseSchemas[key], "#/oneOf/"+strconv.Itoa(i))
		}
		oneOf := map[string]any{"oneOf": members}
		v, err := schemaengine.Compile(schemaengine.BreakCycles(oneOf).(map[string]any))
		if err != nil {
			return Compiled{}, err
		}
		compiled.ResponseValidator = v
	}

	statusValues := make(map[string]any, len(statusKeys))
	headerValues := make(map[string]any, len(statusKeys))

	for _, key := range statusKeys {
		if ref := responseSchemas[key]; ref != nil {
			schemaMap := schemaengine.ToSchemaMap(ref, "#")
			v, err := schemaengine.Compile(schemaengine.BreakCycles(schemaMap).(map[string]any))
			if err != nil {
				return Compiled{}, err
			}
			statusValues[key] = v
		}

		headers := headerSets[key]
		set, err := buildHeaderValidatorSet(headers)
		if err != nil {
			return Compiled{}, err
		}
		headerValues[key] = set
	}

	compiled.StatusResponseValidators = status.NewMap(statusKeys, statusValues)
	compiled.ResponseHeaderValidators = status.NewMap(statusKeys, headerValues)

	return compiled, nil
}

func buildHeaderValidatorSet(headers map[string]opindex.Header) (HeaderValidatorSet, error) {
	var set HeaderValidatorSet
	for _, flavor := range []struct {
		match  SetMatchType
		target *SchemaValidator
	}{
		{Any, &set.Any},
		{Superset, &set.Superset},
		{Subset, &set.Subset},
		{Exact, &set.Exact},
	} {
		schemaMap := responseHeadersSchemaMap(headers, flavor.match)
		v, err := schemaengine.Compile(
			schemaengine.BreakCycles(schemaMap).(map[string]any),
			schemaengine.WithCoercion(true),
		)
		if err != nil {
			return HeaderValidatorSet{}, err
		}
		*flavor.target = v
	}
	return set, nil
}

// gatherResponses flattens op.Responses into a deterministic key
// order (numeric ascending, then "NXX" patterns, then "default"), the
// per-key application/json schema map, and the per-key declared
// headers. OpenAPI's Responses type does not expose declaration
// order, so this ordering is a documented simplification (see
// DESIGN.md) of the "first key in insertion order" tie-break the
// Status Matcher otherwise honors for document-declared maps.
func gatherResponses(responses *openapi3.Responses) ([]string, map[string]*openapi3.SchemaRef, map[string]map[string]opindex.Header) {
	schemas := map[string]*openapi3.SchemaRef{}
	headers := map[string]map[string]opindex.Header{}
	if responses == nil {
		return nil, schemas, headers
	}

	var keys []string
	for key, ref := range responses.Map() {
		keys = append(keys, key)
		if schema := opindex.JSONResponseSchema(ref); schema != nil {
			schemas[key] = schema
		}
		if hs := opindex.ResponseHeaders(ref); len(hs) > 0 {
			headers[key] = hs
		} else {
			headers[key] = map[string]opindex.Header{}
		}
	}

	sort.Slice(keys, func(i, j int) bool { return statusKeyLess(keys[i], keys[j]) })
	return keys, schemas, headers
}

func statusKeyLess(a, b string) bool {
	rankA, numA := statusKeyRank(a)
	rankB, numB := statusKeyRank(b)
	if rankA != rankB {
		return rankA < rankB
	}
	return numA < numB
}

// statusKeyRank buckets a by exact numeric (0), pattern "NXX" (1), or
// "default" (2), so sort.Slice can order exact codes ascending,
// followed by pattern keys ascending, followed by default last.
func statusKeyRank(key string) (rank int, numeric int) {
	if key == "default" {
		return 2, 0
	}
	if n, err := strconv.Atoi(key); err == nil {
		return 0, n
	}
	if len(key) == 3 && key[1] == 'X' && key[2] == 'X' {
		return 1, int(key[0] - '0')
	}
	return 1, 0
}
