// internal/catalog/catalog.go
//
// Image catalog for the memory deck.
//
// Responsibilities:
//   - Provide the embedded default catalog (six fruit/food images).
//   - Load an alternative catalog from a file when CATALOG_FILE is configured.
//   - Normalize and validate identifiers.
//
// File format:
//   One identifier per line; blank lines and lines starting with '#' are skipped.
//   Identifiers are lowercased and may contain a–z, 0–9, '-' and '_'.
//
// Constraints:
//   • At least one identifier.
//   • No duplicates (each image is dealt exactly twice).

package catalog

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed default_catalog.txt
var embeddedCatalog string

// ErrEmpty is returned when a catalog source has no usable identifiers.
var ErrEmpty = errors.New("catalog: no image identifiers")

// Default returns the embedded catalog.
func Default() []string {
	list, err := parse(strings.NewReader(embeddedCatalog))
	if err != nil {
		// The embedded file is part of the build.
		panic(err)
	}
	return list
}

// Load returns the catalog at path, or the embedded default when path is empty.
func Load(path string) ([]string, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	list, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// parse reads identifiers line by line.
func parse(r io.Reader) ([]string, error) {
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		id := strings.ToLower(strings.TrimSpace(sc.Text()))
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		if !validID(id) {
			return nil, fmt.Errorf("line %d: invalid identifier %q", line, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("line %d: duplicate identifier %q", line, id)
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func validID(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
