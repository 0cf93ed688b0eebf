package i18n

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Dictionary is a nested key tree for one language. Only string leaves are
// translations; anything else is treated as missing.
type Dictionary map[string]any

// Lookup resolves a dot-delimited path such as "errors.title".
func (d Dictionary) Lookup(key string) (string, bool) {
	if d == nil || key == "" {
		return "", false
	}

	var node any = map[string]any(d)
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", false
		}
		if node, ok = m[part]; !ok {
			return "", false
		}
	}

	value, ok := node.(string)
	return value, ok
}

// Keys returns every path that resolves to a string, sorted.
func (d Dictionary) Keys() []string {
	var keys []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			switch v := v.(type) {
			case string:
				keys = append(keys, path)
			case map[string]any:
				walk(path, v)
			}
		}
	}
	walk("", d)
	sort.Strings(keys)
	return keys
}

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Interpolate replaces {{name}} with params["name"]. Placeholders without a
// matching param stay as they are.
func Interpolate(template string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(template, "{{") {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-2]
		if value, ok := params[name]; ok {
			return value
		}
		return match
	})
}

// normalize converts decoder output into map[string]any all the way down.
func normalize(v any) (any, error) {
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			v[k] = n
		}
		return v, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			if k == nil {
				continue
			}
			ks, ok := k.(string)
			if !ok {
				// YAML allows keys like 404 or true; address them by their text.
				ks = fmt.Sprint(k)
			}
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			out[ks] = n
		}
		return out, nil
	case []any:
		for i, child := range v {
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			v[i] = n
		}
		return v, nil
	default:
		return v, nil
	}
}
