// Package pathmap implements the bidirectional translation between a
// local and a remote filesystem namespace described by a host's path
// map and shared-path set.
//
// Forward mapping (Map) is filesystem-aware: besides a lexical prefix
// comparison, it resolves which path_map entry covers a given local
// path by comparing inode identity (os.SameFile), so that
// case-insensitive filesystems (macOS, Windows) and symlinked mount
// points still match correctly. Reverse mapping (ReverseMap)
// cannot do this -- the remote path need not exist locally -- so it
// falls back to lexical, separator-aligned prefix matching.
package pathmap

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sosgo/hostcore/internal/hostconfig"
)

// Mapper translates paths between local and remote namespaces for one
// resolved host pair.
type Mapper struct {
	entries []hostconfig.PathMapEntry
	shared  []string
}

// New builds a Mapper from a resolved path map and shared set. Entries
// are normalized so every prefix ends with a path separator, matching
// the convention that path_map prefixes are directory boundaries.
func New(entries []hostconfig.PathMapEntry, shared []string) *Mapper {
	norm := make([]hostconfig.PathMapEntry, len(entries))
	for i, e := range entries {
		norm[i] = hostconfig.PathMapEntry{
			LocalPrefix:  normalizeSeparators(ensureTrailingSep(e.LocalPrefix)),
			RemotePrefix: normalizeSeparators(ensureTrailingSep(e.RemotePrefix)),
		}
	}
	sh := make([]string, len(shared))
	for i, s := range shared {
		sh[i] = normalizeSeparators(ensureTrailingSep(s))
	}
	return &Mapper{entries: norm, shared: sh}
}

func ensureTrailingSep(p string) string {
	if p == "" {
		return p
	}
	if strings.HasSuffix(p, "/") || strings.HasSuffix(p, "\\") {
		return p
	}
	return p + "/"
}

func normalizeSeparators(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// isAbsoluteish reports whether p is already an absolute path under
// either POSIX ("/...") or Windows ("C:/...") conventions, so callers
// know not to re-resolve it against the local working directory.
func isAbsoluteish(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	if len(p) >= 2 && p[1] == ':' {
		return true
	}
	return false
}

// Map translates a local path to its remote equivalent. A "#"-prefixed
// named path is a workdir token, not a filesystem path, and is
// returned unchanged. Among all path_map entries whose local_prefix
// covers source (a boundary-aligned lexical match, or else os.SameFile
// between the prefix and a leading segment of source), the longest
// matching prefix wins; ties keep the
// first entry encountered, matching a stable "first maximal element"
// selection.
func (m *Mapper) Map(source string) string {
	if strings.HasPrefix(source, "#") {
		return source
	}

	abs := normalizeSeparators(source)
	if !isAbsoluteish(abs) {
		if resolved, err := filepath.Abs(expandHome(source)); err == nil {
			abs = normalizeSeparators(resolved)
		}
	}

	var best hostconfig.PathMapEntry
	bestLen := -1
	for _, e := range m.entries {
		if e.LocalPrefix == "" {
			continue
		}
		if !samePathPrefix(abs, e.LocalPrefix) {
			continue
		}
		if len(e.LocalPrefix) > bestLen {
			bestLen = len(e.LocalPrefix)
			best = e
		}
	}
	if bestLen < 0 {
		return abs
	}
	rest := strings.TrimPrefix(abs, strings.TrimSuffix(best.LocalPrefix, "/"))
	rest = strings.TrimPrefix(rest, "/")
	mapped := strings.TrimSuffix(best.RemotePrefix, "/")
	if rest != "" {
		mapped = mapped + "/" + rest
	}
	return mapped
}

// samePathPrefix decides whether abs lies under prefix. It first
// tries a boundary-aligned lexical comparison; if that fails, it
// compares the prefix directory itself against each ancestor of abs
// by inode identity (os.SameFile), which is what makes this
// "filesystem-aware" rather than a plain strings.HasPrefix check.
// When the prefix cannot be stat'd, only the lexical comparison
// applies.
func samePathPrefix(abs, prefix string) bool {
	trimmedPrefix := strings.TrimSuffix(prefix, "/")
	if trimmedPrefix == "" {
		return false
	}

	if lexicalPrefixMatch(abs, trimmedPrefix) {
		return true
	}

	prefixInfo, err := os.Stat(trimmedPrefix)
	if err != nil {
		return false
	}

	// Walk abs's ancestors looking for one that is the same file as
	// prefix -- handles the case where abs's literal string doesn't
	// start with prefix's literal string (symlinked or case-folded).
	dir := abs
	for {
		info, err := os.Stat(dir)
		if err == nil && os.SameFile(info, prefixInfo) {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

func lexicalPrefixMatch(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	return path[len(prefix)] == '/'
}

// ReverseMap translates a remote path back to its local equivalent
// using purely lexical, boundary-aligned prefix matching against
// remote_prefix entries -- the remote path need not exist on this
// machine, so no stat-based identity check is possible.
func (m *Mapper) ReverseMap(dest string) string {
	dest = normalizeSeparators(dest)

	var best hostconfig.PathMapEntry
	bestLen := -1
	for _, e := range m.entries {
		trimmed := strings.TrimSuffix(e.RemotePrefix, "/")
		if trimmed == "" {
			continue
		}
		if !lexicalPrefixMatch(dest, trimmed) {
			continue
		}
		if len(trimmed) > bestLen {
			bestLen = len(trimmed)
			best = e
		}
	}
	if bestLen < 0 {
		return dest
	}
	rest := strings.TrimPrefix(dest, strings.TrimSuffix(best.RemotePrefix, "/"))
	rest = strings.TrimPrefix(rest, "/")
	mapped := strings.TrimSuffix(best.LocalPrefix, "/")
	if rest != "" {
		mapped = mapped + "/" + rest
	}
	return mapped
}

// IsShared reports whether source lies under a shared prefix and is
// NOT also covered by a more specific path_map entry -- path_map
// always wins over shared.
func (m *Mapper) IsShared(source string) bool {
	abs, err := filepath.Abs(expandHome(source))
	if err != nil {
		abs = source
	}
	abs = normalizeSeparators(abs)

	for _, e := range m.entries {
		if samePathPrefix(abs, e.LocalPrefix) {
			return false
		}
	}
	for _, s := range m.shared {
		if lexicalPrefixMatch(abs, strings.TrimSuffix(s, "/")) {
			return true
		}
	}
	return false
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		if p == "~" {
			return home
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
