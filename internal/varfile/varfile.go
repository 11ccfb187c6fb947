// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package varfile loads global variables from YAML files and from
// "name:value" command line assignments.
package varfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML variable file. See Parse.
func Load(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading variable file '%s': %w", path, err)
	}
	vars, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("variable file '%s': %w", path, err)
	}
	return vars, nil
}

// Parse decodes a YAML document whose top level is a mapping. Plain keys
// become scalar variables ("name" -> "${name}"). Decorated keys keep their
// sigil and are checked: "@{x}" must hold a sequence and "&{x}" a mapping.
// An empty document yields no variables.
func Parse(raw []byte) (map[string]any, error) {
	var doc map[string]any
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	vars := make(map[string]any, len(doc))
	var errs []string
	for key, value := range doc {
		name, err := decorate(key, value)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		vars[name] = normalize(value)
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, fmt.Errorf("variable file validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return vars, nil
}

// ParseAssignments turns "name:value" pairs into scalar variables. The value
// is kept as a string.
func ParseAssignments(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid variable '%s': expected format 'name:value'", p)
		}
		vars["${"+strings.TrimSpace(name)+"}"] = value
	}
	return vars, nil
}

func decorate(key string, value any) (string, error) {
	if len(key) >= 3 && key[1] == '{' && strings.HasSuffix(key, "}") {
		switch key[0] {
		case '$':
			return key, nil
		case '@':
			if _, ok := value.([]any); !ok {
				return "", fmt.Errorf("value of list variable '%s' is not a sequence", key)
			}
			return key, nil
		case '&':
			if _, ok := value.(map[string]any); !ok {
				return "", fmt.Errorf("value of dictionary variable '%s' is not a mapping", key)
			}
			return key, nil
		}
	}
	if strings.ContainsAny(key, "${}@&%") {
		return "", fmt.Errorf("invalid variable name '%s'", key)
	}
	return "${" + key + "}", nil
}

// normalize converts nested YAML mappings with non-string keys into
// map[string]any so the variable store can address their items.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			x[k] = normalize(item)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = normalize(item)
		}
		return x
	}
	return v
}
