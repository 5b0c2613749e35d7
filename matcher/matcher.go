package matcher

import "strings"

// CaseSensitivePrefix switches a pattern to case-sensitive matching.
const CaseSensitivePrefix = "(?-i)"

// WildcardMatcher is a compiled wildcard pattern.
type WildcardMatcher struct {
	pattern       string
	segments      []string
	leading       bool
	trailing      bool
	caseSensitive bool
}

// Compile parses pattern into a WildcardMatcher.
func Compile(pattern string) *WildcardMatcher {
	m := &WildcardMatcher{pattern: pattern}

	body := pattern
	if strings.HasPrefix(body, CaseSensitivePrefix) {
		m.caseSensitive = true
		body = body[len(CaseSensitivePrefix):]
	}

	m.leading = strings.HasPrefix(body, "*")
	m.trailing = len(body) > 0 && strings.HasSuffix(body, "*")

	for _, part := range strings.Split(body, "*") {
		if part == "" {
			continue
		}
		if !m.caseSensitive {
			part = toLowerASCII(part)
		}
		m.segments = append(m.segments, part)
	}
	return m
}

// String returns the pattern the matcher was compiled from.
func (m *WildcardMatcher) String() string {
	if m == nil {
		return ""
	}
	return m.pattern
}

// Matches reports whether s matches the pattern.
func (m *WildcardMatcher) Matches(s string) bool {
	if m == nil {
		return false
	}
	return m.match(text{first: s})
}

// MatchesParts reports whether first+second matches the pattern.
func (m *WildcardMatcher) MatchesParts(first, second string) bool {
	if m == nil {
		return false
	}
	return m.match(text{first: first, second: second})
}

func (m *WildcardMatcher) match(t text) bool {
	n := t.len()
	if len(m.segments) == 0 {
		if m.leading || m.trailing {
			return true
		}
		return n == 0
	}

	pos := 0
	last := len(m.segments) - 1
	for i, seg := range m.segments {
		switch {
		case i == 0 && !m.leading:
			if len(seg) > n || !m.matchAt(seg, t, 0) {
				return false
			}
			if i == last && !m.trailing {
				return len(seg) == n
			}
			pos = len(seg)
		case i == last && !m.trailing:
			start := n - len(seg)
			return start >= pos && m.matchAt(seg, t, start)
		default:
			idx := m.indexFrom(seg, t, pos)
			if idx < 0 {
				return false
			}
			pos = idx + len(seg)
		}
	}
	return true
}

func (m *WildcardMatcher) indexFrom(seg string, t text, from int) int {
	n := t.len()
	for i := from; i+len(seg) <= n; i++ {
		if m.matchAt(seg, t, i) {
			return i
		}
	}
	return -1
}

func (m *WildcardMatcher) matchAt(seg string, t text, pos int) bool {
	if pos+len(seg) > t.len() {
		return false
	}
	for j := 0; j < len(seg); j++ {
		want := seg[j]
		if want == '?' {
			continue
		}
		got := t.at(pos + j)
		if !m.caseSensitive {
			got = lowerASCII(got)
		}
		if got != want {
			return false
		}
	}
	return true
}

// text is the logical concatenation of two strings.
type text struct {
	first  string
	second string
}

func (t text) len() int {
	return len(t.first) + len(t.second)
}

func (t text) at(i int) byte {
	if i < len(t.first) {
		return t.first[i]
	}
	return t.second[i-len(t.first)]
}
