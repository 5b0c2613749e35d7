// Package matcher provides compiled glob-style patterns used by the agent to
// filter content types, group URLs and recognise file extensions.
//
// A pattern is a literal string in which '*' matches any (possibly empty)
// sequence and '?' matches exactly one byte. Matching is ASCII
// case-insensitive unless the pattern starts with "(?-i)".
//
// Example:
//
//	json := matcher.Compile("application/json*")
//	json.Matches("Application/JSON; charset=utf-8") // true
//
//	groups := matcher.CompileAll([]string{"/users/*", "/orders/*/items"})
//	if m := matcher.AnyMatchParts(groups, servletPath, pathInfo); m != nil {
//	    name = method + " " + m.String()
//	}
//
// MatchesParts and AnyMatchParts test the concatenation of two strings without
// allocating it, which keeps matching free of garbage on the request path.
//
// A WildcardMatcher is immutable after Compile and safe for concurrent use.
package matcher
