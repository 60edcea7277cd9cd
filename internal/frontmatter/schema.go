package frontmatter

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/postbuilder/internal/post"
)

// Flags are the control fields stripped from stored metadata.
type Flags struct {
	// Skip means the post is excluded from publishing entirely
	// (draft or noPublish).
	Skip bool
	// Unlisted means the post is rendered and stored but omitted
	// from the aggregate index.
	Unlisted bool
}

// document is the closed front-matter schema. Decoding runs with
// KnownFields so unknown keys are rejected at the boundary.
type document struct {
	Title       string   `yaml:"title"`
	WrittenDate string   `yaml:"writtenDate"`
	Subtitle    string   `yaml:"subtitle"`
	Series      string   `yaml:"series"`
	Description string   `yaml:"description"`
	Category    []string `yaml:"category"`
	Draft       bool     `yaml:"draft"`
	NoPublish   bool     `yaml:"noPublish"`
	Unlisted    bool     `yaml:"unlisted"`
}

// writtenDateLayouts are accepted on input; storage always normalizes
// to RFC 3339.
var writtenDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse decodes and validates a raw YAML front-matter block, returning
// normalized metadata and the control flags.
func Parse(raw []byte) (post.Meta, Flags, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return post.Meta{}, Flags{}, fmt.Errorf("front matter block is empty")
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return post.Meta{}, Flags{}, fmt.Errorf("decode front matter: %w", err)
	}

	if doc.Title == "" {
		return post.Meta{}, Flags{}, fmt.Errorf("required field %q is missing or empty", "title")
	}
	if doc.WrittenDate == "" {
		return post.Meta{}, Flags{}, fmt.Errorf("required field %q is missing or empty", "writtenDate")
	}

	written, err := normalizeWritten(doc.WrittenDate)
	if err != nil {
		return post.Meta{}, Flags{}, err
	}

	meta := post.Meta{
		Title:       doc.Title,
		Written:     written,
		Subtitle:    doc.Subtitle,
		Series:      doc.Series,
		Description: doc.Description,
		Categories:  doc.Category,
	}
	flags := Flags{
		Skip:     doc.Draft || doc.NoPublish,
		Unlisted: doc.Unlisted,
	}
	return meta, flags, nil
}

func normalizeWritten(value string) (string, error) {
	for _, layout := range writtenDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.Format(time.RFC3339), nil
		}
	}
	return "", fmt.Errorf("writtenDate %q is not a recognized date-time", value)
}
