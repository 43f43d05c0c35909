package domain

import (
	"path/filepath"
	"strings"
)

// SearchQuery describes one search invocation. Values are fixed at the
// moment the debounce window elapses; later keystrokes produce a new query.
type SearchQuery struct {
	Pattern    string
	Root       string // absolute directory handed to ripgrep
	Executable string // path to the ripgrep binary
	ExtraArgs  string // user-configured arguments, appended verbatim
}

// Submatch is one highlighted span within a matched line. Start and End are
// byte offsets into the line text.
type Submatch struct {
	Start int
	End   int
	Text  string
}

// Match is a single matching line reported by ripgrep.
type Match struct {
	Path           string // as reported by ripgrep, may be absolute
	Line           string // matched line text
	LineNumber     int
	AbsoluteOffset int
	Submatches     []Submatch
}

// DisplayPath returns the match path relative to root for presentation.
// Paths outside root are returned unchanged.
func (m Match) DisplayPath(root string) string {
	if root == "" {
		return m.Path
	}
	rel, err := filepath.Rel(root, m.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return strings.TrimPrefix(m.Path, root+string(filepath.Separator))
	}
	return rel
}

// ResultSet is the ordered outcome of one search invocation. Order is
// ripgrep's emission order and is never re-sorted.
type ResultSet struct {
	Matches []Match
}

// Empty reports whether the search produced no matches.
func (rs ResultSet) Empty() bool {
	return len(rs.Matches) == 0
}
