// Package identity derives the stable short name of a post from its
// filename. The same resolver is used for source markdown files and for
// produced JSON artifacts so identities computed on each side compare.
package identity

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Identities are filesystem- and URL-safe short names.
var (
	grammar   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	bracketed = regexp.MustCompile(`\[([A-Za-z0-9_-]+)\]`)
)

// ErrNoIdentity indicates the filename neither matches the identity
// grammar nor contains exactly one bracketed identity token.
var ErrNoIdentity = errors.New("no identity derivable from filename")

// Valid reports whether s conforms to the identity grammar.
func Valid(s string) bool { return grammar.MatchString(s) }

// Resolve derives the identity of path from its base filename with the
// extension stripped. A base that matches the grammar is its own
// identity; otherwise exactly one bracketed token (e.g.
// "2024-draft-[hello].md") supplies it. Zero or multiple tokens fail.
func Resolve(path string) (string, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	// Filenames arrive NFD from some filesystems; normalize before matching.
	base = norm.NFC.String(base)

	if grammar.MatchString(base) {
		return base, nil
	}

	matches := bracketed.FindAllStringSubmatch(base, 2)
	if len(matches) != 1 {
		return "", ErrNoIdentity
	}
	return matches[0][1], nil
}
