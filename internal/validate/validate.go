// Package validate checks a batch of source paths before any build
// phase mutates the filesystem: identity grammar, reserved names, and
// duplicate identities across distinct paths.
package validate

import (
	"sort"

	"git.home.luguber.info/inful/postbuilder/internal/identity"
	"git.home.luguber.info/inful/postbuilder/internal/util/sets"
)

// Invalid describes one rejected path and why it was rejected.
type Invalid struct {
	Path   string
	Reason string
}

const (
	ReasonNoIdentity = "filename does not yield an identity"
	ReasonReserved   = "identity collides with a reserved name"
	ReasonGrammar    = "identity contains characters outside [A-Za-z0-9_-]"
)

// Names flags every path whose identity cannot be resolved, is
// reserved, or fails the strict grammar. The validator is the single
// authority on acceptability; resolver success alone is not enough.
func Names(paths []string, banned sets.Set[string]) []Invalid {
	var invalid []Invalid
	for _, p := range paths {
		id, err := identity.Resolve(p)
		switch {
		case err != nil:
			invalid = append(invalid, Invalid{Path: p, Reason: ReasonNoIdentity})
		case banned.Has(id):
			invalid = append(invalid, Invalid{Path: p, Reason: ReasonReserved})
		case !identity.Valid(id):
			invalid = append(invalid, Invalid{Path: p, Reason: ReasonGrammar})
		}
	}
	return invalid
}

// Duplicates maps each identity claimed by more than one path to the
// sorted list of claiming paths. Paths whose identity does not resolve
// are ignored here; Names already rejects them.
func Duplicates(paths []string) map[string][]string {
	byIdentity := make(map[string][]string)
	for _, p := range paths {
		id, err := identity.Resolve(p)
		if err != nil {
			continue
		}
		byIdentity[id] = append(byIdentity[id], p)
	}

	dupes := make(map[string][]string)
	for id, claimed := range byIdentity {
		if len(claimed) > 1 {
			sort.Strings(claimed)
			dupes[id] = claimed
		}
	}
	return dupes
}
