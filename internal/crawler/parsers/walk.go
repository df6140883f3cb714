package parsers

import (
	"encoding/json"
	"sort"
	"strings"
)

// DecodeJSON decodes the first JSON value in s. Trailing text such as the ";"
// after a script assignment is ignored. Numbers keep their literal form so
// that 16-digit IDs do not lose precision.
func DecodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	return v, nil
}

// IsIDKey reports whether a JSON key names an identifier: "id", "itemId", "article_id", "entityID".
func IsIDKey(key string) bool {
	if strings.EqualFold(key, "id") {
		return true
	}

	return strings.HasSuffix(key, "Id") || strings.HasSuffix(key, "ID") || strings.HasSuffix(strings.ToLower(key), "_id")
}

// WalkIDs returns every article-ID-shaped value stored under an ID-like key,
// anywhere in v. Object keys are visited in sorted order so the result only
// depends on the document, never on map iteration.
func WalkIDs(v any) []string {
	var ids []string

	walkJSON(v, "", func(key string, scalar any) {
		if !IsIDKey(key) {
			return
		}

		var s string

		switch val := scalar.(type) {
		case string:
			s = strings.TrimSpace(val)
		case json.Number:
			s = val.String()
		default:
			return
		}

		if IsArticleID(s) {
			ids = append(ids, s)
		}
	})

	return ids
}

func walkJSON(v any, key string, visit func(key string, scalar any)) {
	switch node := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			walkJSON(node[k], k, visit)
		}
	case []any:
		// array elements inherit the enclosing key: {"ids": ["12345", ...]} is not an ID field,
		// {"itemId": ["12345"]} is
		for _, elem := range node {
			walkJSON(elem, key, visit)
		}
	default:
		visit(key, node)
	}
}
