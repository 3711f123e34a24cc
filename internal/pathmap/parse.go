package pathmap

import (
	"fmt"
	"strings"

	"github.com/sosgo/hostcore/internal/errors"
	"github.com/sosgo/hostcore/internal/hostconfig"
)

const arrow = " -> "

// ParseLiteral parses a single "from -> to" path_map entry. Exactly
// one " -> " separator must be present; zero or more than one is a
// ConfigError naming the offending string.
func ParseLiteral(s string) (hostconfig.PathMapEntry, error) {
	parts := strings.Split(s, arrow)
	if len(parts) != 2 {
		return hostconfig.PathMapEntry{}, errors.New(
			errors.ErrConfig,
			fmt.Sprintf("path map should be separated as from -> to, %q specified", s),
			`use exactly one " -> " separator, e.g. "/local/dir -> /remote/dir"`,
		)
	}
	return hostconfig.PathMapEntry{
		LocalPrefix:  strings.TrimSpace(parts[0]),
		RemotePrefix: strings.TrimSpace(parts[1]),
	}, nil
}

// ParseLiterals parses an ordered sequence of "from -> to" entries,
// stopping at the first malformed one.
func ParseLiterals(literals []string) ([]hostconfig.PathMapEntry, error) {
	entries := make([]hostconfig.PathMapEntry, 0, len(literals))
	for _, l := range literals {
		e, err := ParseLiteral(l)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
