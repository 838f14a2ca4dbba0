// Dataset discovery: explicit argument, then well-known user-data locations
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFile is the dataset file name looked up in the default locations.
const DefaultFile = "airports.db3"

// DefaultCandidates lists the default dataset locations in lookup order:
// $XDG_DATA_HOME/flight-planner, ~/.local/share/flight-planner, then the
// current directory.
func DefaultCandidates() []string {
	var candidates []string
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "flight-planner", DefaultFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".local", "share", "flight-planner", DefaultFile))
	}
	return append(candidates, DefaultFile)
}

// Locate resolves the dataset to profile. An explicit arg must exist (or be
// a postgres DSN); otherwise the first existing candidate wins.
func Locate(arg string, candidates []string) (string, error) {
	if arg != "" {
		if isPostgresDSN(arg) {
			return arg, nil
		}
		info, err := os.Stat(arg)
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("%w: dataset %q not found", ErrConfiguration, arg)
		}
		return arg, nil
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: could not find %s (looked in %s)", ErrConfiguration, DefaultFile, strings.Join(candidates, ", "))
}
