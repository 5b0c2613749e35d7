package matcher

import "strings"

// CompileAll compiles every non-blank pattern, preserving order.
func CompileAll(patterns []string) []*WildcardMatcher {
	matchers := make([]*WildcardMatcher, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		matchers = append(matchers, Compile(p))
	}
	return matchers
}

// ParseList compiles a comma separated pattern list such as
// "text/*, application/json*".
func ParseList(list string) []*WildcardMatcher {
	return CompileAll(strings.Split(list, ","))
}

// AnyMatch returns the first matcher matching s, or nil.
func AnyMatch(matchers []*WildcardMatcher, s string) *WildcardMatcher {
	for _, m := range matchers {
		if m.Matches(s) {
			return m
		}
	}
	return nil
}

// AnyMatchParts returns the first matcher matching first+second, or nil.
func AnyMatchParts(matchers []*WildcardMatcher, first, second string) *WildcardMatcher {
	for _, m := range matchers {
		if m.MatchesParts(first, second) {
			return m
		}
	}
	return nil
}

// IsAnyMatch reports whether any matcher matches s.
func IsAnyMatch(matchers []*WildcardMatcher, s string) bool {
	return AnyMatch(matchers, s) != nil
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i := range b {
		b[i] = lowerASCII(b[i])
	}
	return string(b)
}
