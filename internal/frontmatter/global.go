package frontmatter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/postbuilder/internal/post"
	"git.home.luguber.info/inful/postbuilder/internal/util/sets"
)

// Global is the site-wide metadata context. When supplied, post
// series and category references must be declared here, and the
// context is persisted next to the per-post artifacts.
type Global struct {
	Series     []string `yaml:"series" json:"series,omitempty"`
	Categories []string `yaml:"categories" json:"categories,omitempty"`
}

// LoadGlobal reads and decodes a global metadata file. Unknown keys
// are rejected, same as per-post front matter.
func LoadGlobal(path string) (*Global, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open global metadata: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var g Global
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("decode global metadata %s: %w", path, err)
	}
	return &g, nil
}

// ValidateRefs checks that meta's series and categories are declared
// in the global context. A nil context validates everything.
func ValidateRefs(meta post.Meta, global *Global) error {
	if global == nil {
		return nil
	}

	if meta.Series != "" && !sets.New(global.Series...).Has(meta.Series) {
		return fmt.Errorf("series %q is not declared in global metadata", meta.Series)
	}

	declared := sets.New(global.Categories...)
	for _, c := range meta.Categories {
		if !declared.Has(c) {
			return fmt.Errorf("category %q is not declared in global metadata", c)
		}
	}
	return nil
}
