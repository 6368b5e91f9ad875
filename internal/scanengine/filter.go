package scanengine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joe/treescan/pkg/filesystem"
)

// PathMatcher is a stateless predicate classifying a path.
type PathMatcher interface {
	// Match reports whether the path matches.
	Match(path string) bool
}

// GlobMatcher matches full paths against a glob pattern supporting `*`,
// `**`, `?`, character classes and brace alternation.
type GlobMatcher struct {
	pattern string
}

// NewGlobMatcher compiles a glob pattern into a matcher. An invalid pattern
// is a configuration error.
func NewGlobMatcher(pattern string) (*GlobMatcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("glob pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	return &GlobMatcher{pattern: pattern}, nil
}

// Match evaluates the pattern against the full slash-normalized path.
func (m *GlobMatcher) Match(path string) bool {
	ok, err := doublestar.Match(m.pattern, filepath.ToSlash(path))

	return err == nil && ok
}

// HiddenNameMatcher matches POSIX-style hidden entries: a final path segment
// starting with a dot.
type HiddenNameMatcher struct{}

func (HiddenNameMatcher) Match(path string) bool {
	name := lastSegment(path)

	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// HiddenAttributeMatcher matches entries carrying the filesystem's DOS
// hidden attribute. Build one only when the filesystem reports support for
// the attribute.
type HiddenAttributeMatcher struct {
	fsys filesystem.FS
}

// NewHiddenAttributeMatcher creates a matcher querying fsys.
func NewHiddenAttributeMatcher(fsys filesystem.FS) *HiddenAttributeMatcher {
	return &HiddenAttributeMatcher{fsys: fsys}
}

func (m *HiddenAttributeMatcher) Match(path string) bool {
	hidden, err := m.fsys.Hidden(path)

	return err == nil && hidden
}

// systemFileNames are well-known OS-generated artifacts. The set is fixed
// and independent of the host OS, so a tree written by one system is
// filtered the same way everywhere.
var systemFileNames = map[string]struct{}{
	".DS_Store":                 {},
	".AppleDouble":              {},
	".LSOverride":               {},
	".Spotlight-V100":           {},
	".Trashes":                  {},
	"__MACOSX":                  {},
	"Thumbs.db":                 {},
	"ehthumbs.db":               {},
	"desktop.ini":               {},
	"Desktop.ini":               {},
	"$RECYCLE.BIN":              {},
	"System Volume Information": {},
	".directory":                {},
}

// SystemFileMatcher matches well-known OS-generated artifact names.
type SystemFileMatcher struct{}

func (SystemFileMatcher) Match(path string) bool {
	_, ok := systemFileNames[lastSegment(path)]

	return ok
}

// FilterSet is one job's immutable filter configuration: an ordered list of
// exclude matchers and an ordered list of include matchers.
type FilterSet struct {
	excludes []PathMatcher
	includes []PathMatcher
}

// Exclude appends an exclude matcher.
func (f *FilterSet) Exclude(m PathMatcher) {
	f.excludes = append(f.excludes, m)
}

// Include appends an include matcher.
func (f *FilterSet) Include(m PathMatcher) {
	f.includes = append(f.includes, m)
}

// Excluded reports whether any exclude matcher matches. Excluded
// directories are pruned from recursion, not just skipped as entries.
func (f *FilterSet) Excluded(path string) bool {
	for _, m := range f.excludes {
		if m.Match(path) {
			return true
		}
	}

	return false
}

// Included reports whether the include set accepts a file: an empty set
// accepts everything, otherwise at least one matcher must match. Include
// matchers gate which files are reported, never which directories are
// traversed.
func (f *FilterSet) Included(path string) bool {
	if len(f.includes) == 0 {
		return true
	}

	for _, m := range f.includes {
		if m.Match(path) {
			return true
		}
	}

	return false
}

// Accept reports whether a file passes the whole set.
func (f *FilterSet) Accept(path string) bool {
	return !f.Excluded(path) && f.Included(path)
}

// lastSegment returns the final path segment for either separator
// convention.
func lastSegment(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}

	return p
}
