package build

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/postbuilder/internal/identity"
	"git.home.luguber.info/inful/postbuilder/internal/util/sets"
)

// DiscoverSources walks the input root recursively and returns every
// markdown file path.
func DiscoverSources(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// DiscoverOutputs lists JSON artifacts directly under the output root
// (non-recursive). The aggregate index and the metadata sidecar are
// excluded by identity. A missing output root means a first-ever build.
func DiscoverOutputs(root string, reserved sets.Set[string]) ([]string, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		id, err := identity.Resolve(e.Name())
		if err != nil || reserved.Has(id) {
			continue
		}
		paths = append(paths, filepath.Join(root, e.Name()))
	}
	return paths, nil
}
