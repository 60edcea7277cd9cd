package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"git.home.luguber.info/inful/postbuilder/internal/build"
	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/postbuilder/internal/util/sets"
	"git.home.luguber.info/inful/postbuilder/internal/validate"
)

// CheckCmd implements the 'check' command: the same validation the
// build runs, without touching the output directory.
type CheckCmd struct {
	InputDir  string `arg:"" help:"Directory scanned recursively for markdown posts"`
	IndexName string `name:"index-name" default:"posts" help:"Index name to treat as reserved"`
	Meta      string `help:"Path to a global metadata file declaring series and categories"`
	Format    string `short:"o" default:"text" enum:"text,json" help:"Output format (text or json)"`
}

// finding is one reported problem.
type finding struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (c *CheckCmd) Run(_ *Global, _ *CLI) error {
	sources, err := build.DiscoverSources(c.InputDir)
	if err != nil {
		return err
	}

	var global *frontmatter.Global
	if c.Meta != "" {
		if global, err = frontmatter.LoadGlobal(c.Meta); err != nil {
			return err
		}
	}

	findings := collectFindings(sources, c.IndexName, global)

	if c.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(findings); err != nil {
			return err
		}
	} else {
		for _, f := range findings {
			fmt.Fprintf(os.Stderr, "%s: %s\n", f.Path, f.Reason)
		}
	}

	if len(findings) > 0 {
		return fmt.Errorf("check failed: %d problem(s) in %d post(s)", len(findings), len(sources))
	}
	if c.Format == "text" {
		fmt.Printf("checked %d posts, no problems\n", len(sources))
	}
	return nil
}

func collectFindings(sources []string, indexName string, global *frontmatter.Global) []finding {
	findings := make([]finding, 0)

	reserved := sets.New(indexName, config.SidecarName)
	flagged := sets.New[string]()
	for _, inv := range validate.Names(sources, reserved) {
		findings = append(findings, finding{Path: inv.Path, Reason: inv.Reason})
		flagged.Add(inv.Path)
	}
	for id, paths := range validate.Duplicates(sources) {
		for _, p := range paths {
			findings = append(findings, finding{Path: p, Reason: "duplicate identity " + id})
		}
	}

	for _, src := range sources {
		if flagged.Has(src) {
			continue
		}
		content, err := os.ReadFile(src)
		if err != nil {
			findings = append(findings, finding{Path: src, Reason: err.Error()})
			continue
		}
		raw, _, err := frontmatter.Split(content)
		if err != nil {
			findings = append(findings, finding{Path: src, Reason: err.Error()})
			continue
		}
		meta, _, err := frontmatter.Parse(raw)
		if err != nil {
			findings = append(findings, finding{Path: src, Reason: err.Error()})
			continue
		}
		if err := frontmatter.ValidateRefs(meta, global); err != nil {
			findings = append(findings, finding{Path: src, Reason: err.Error()})
		}
	}
	return findings
}
