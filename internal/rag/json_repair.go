package rag

import "strings"

// RepairJSON fixes common defects in model-produced JSON: text around the
// outermost object, unquoted or half-quoted keys, and trailing commas.
func RepairJSON(s string) string {
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}

	in := []rune(s)
	out := make([]rune, 0, len(in)+32)
	inString, escaped := false, false

	for i := 0; i < len(in); i++ {
		ch := in[i]

		if inString {
			out = append(out, ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
			out = append(out, ch)
		case ',':
			j := skipSpace(in, i+1)
			if j < len(in) && (in[j] == '}' || in[j] == ']') {
				// trailing comma
				continue
			}
			out = append(out, ch)
			i = copyKey(in, i+1, &out) - 1
		case '{':
			out = append(out, ch)
			i = copyKey(in, i+1, &out) - 1
		default:
			out = append(out, ch)
		}
	}

	return string(out)
}

// copyKey copies whitespace starting at i and, when an unquoted or
// half-quoted object key follows, emits it quoted. It returns the index of
// the first rune not consumed.
func copyKey(in []rune, i int, out *[]rune) int {
	j := skipSpace(in, i)
	*out = append(*out, in[i:j]...)
	if j >= len(in) || !isKeyStart(in[j]) {
		return j
	}

	k := j
	for k < len(in) && isKeyRune(in[k]) {
		k++
	}
	key := in[j:k]

	// half-quoted: name": ...
	if k+1 < len(in) && in[k] == '"' && in[k+1] == ':' {
		*out = append(*out, '"')
		*out = append(*out, key...)
		*out = append(*out, '"')
		return k + 1
	}

	// bare: name: ...
	if c := skipSpace(in, k); c < len(in) && in[c] == ':' {
		*out = append(*out, '"')
		*out = append(*out, key...)
		*out = append(*out, '"')
		return k
	}

	return j
}

func skipSpace(in []rune, i int) int {
	for i < len(in) && (in[i] == ' ' || in[i] == '\n' || in[i] == '\t' || in[i] == '\r') {
		i++
	}
	return i
}

func isKeyStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isKeyRune(r rune) bool {
	return isKeyStart(r) || (r >= '0' && r <= '9')
}
