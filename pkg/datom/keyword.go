package datom

import "strings"

// Keyword is a symbolic attribute or value name, written with a leading
// colon and an optional namespace, e.g. ":user/name" or ":dz/nil".
type Keyword string

func (k Keyword) String() string {
	return string(k)
}

// Namespace returns the part before the slash, without the leading colon.
// It is empty for unnamespaced keywords.
func (k Keyword) Namespace() string {
	s := strings.TrimPrefix(string(k), ":")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[:i]
	}
	return ""
}

// Name returns the part after the slash, or the whole keyword without the
// leading colon when there is no namespace.
func (k Keyword) Name() string {
	s := strings.TrimPrefix(string(k), ":")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}
