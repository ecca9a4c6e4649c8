package providers

import (
	"encoding/json"
	"strconv"
	"strings"
)

// maxBodyBytes caps how much of an upstream body is read into memory
const maxBodyBytes = 1 << 20

// Expand replaces {name} placeholders with vars[name]. Names with no value
// are returned in missing and expand to the empty string.
func Expand(tmpl string, vars map[string]string) (string, []string) {
	if !strings.Contains(tmpl, "{") {
		return tmpl, nil
	}

	var (
		b       strings.Builder
		missing []string
	)
	b.Grow(len(tmpl))
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			break
		}
		end += open

		name := tmpl[open+1 : end]
		if !isPlaceholder(name) {
			// JSON bodies contain braces too
			b.WriteString(tmpl[:open+1])
			tmpl = tmpl[open+1:]
			continue
		}

		b.WriteString(tmpl[:open])
		if v, ok := vars[name]; ok && v != "" {
			b.WriteString(v)
		} else {
			missing = append(missing, name)
		}
		tmpl = tmpl[end+1:]
	}
	return b.String(), missing
}

func isPlaceholder(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// Lookup walks a dotted path ("0.id", "data.me.id") through a JSON document.
// Numeric segments index arrays. Scalars come back as their string form.
func Lookup(body []byte, path string) (string, bool) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", false
	}

	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return "", false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return "", false
			}
			cur = node[i]
		default:
			return "", false
		}
	}

	if cur == nil {
		return "", false
	}
	return ExtraString(cur), true
}
