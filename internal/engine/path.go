package engine

import (
	"strconv"
	"strings"
)

// ResolvePath extracts a value from a nested payload given a dot/array-index
// path expression ("order.items[2].serial"). A leading "$." or "$" prefix is
// accepted for compatibility with older rule configurations; "$" alone (or an
// empty path) denotes the whole payload.
//
// The second return is false when any segment is missing, an index is out of
// range, or a nil is hit mid-path. Absence is a value, not an error.
func ResolvePath(payload any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" || path == "$" {
		return payload, true
	}
	if strings.HasPrefix(path, "$.") {
		path = path[2:]
	} else if strings.HasPrefix(path, "$") {
		path = path[1:]
	}
	if path == "" {
		return payload, true
	}

	current := payload
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		name, index, hasIndex, ok := parseSegment(seg)
		if !ok {
			return nil, false
		}

		if name != "" {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = obj[name]
			if !ok {
				return nil, false
			}
		}

		if hasIndex {
			arr, ok := current.([]any)
			if !ok || index < 0 || index >= len(arr) {
				return nil, false
			}
			current = arr[index]
		}

		// nil mid-path cannot be descended into
		if current == nil && i < len(segments)-1 {
			return nil, false
		}
	}
	return current, true
}

// parseSegment splits "name[3]" into its name and index parts.
func parseSegment(seg string) (name string, index int, hasIndex bool, ok bool) {
	open := strings.IndexByte(seg, '[')
	if open == -1 {
		return seg, 0, false, seg != ""
	}
	if !strings.HasSuffix(seg, "]") {
		return "", 0, false, false
	}
	idx, err := strconv.Atoi(seg[open+1 : len(seg)-1])
	if err != nil {
		return "", 0, false, false
	}
	return seg[:open], idx, true, true
}
