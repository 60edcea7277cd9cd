// Package render turns one markdown source into a post.Record: split
// and validate front matter, convert markdown to HTML with syntax
// highlighting, and rewrite relative markdown links to post URLs.
package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/postbuilder/internal/errors"
	"git.home.luguber.info/inful/postbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/postbuilder/internal/post"
)

// Source is one markdown file scheduled for rendering.
type Source struct {
	Identity string
	Path     string
}

// Renderer converts a source into a content record.
//
// Render returns (nil, nil) when the post declares it should be
// skipped (draft/noPublish). Implementations must be safe for
// concurrent use: the orchestrator invokes Render from multiple
// goroutines against a single shared instance.
type Renderer interface {
	Render(ctx context.Context, src Source) (*post.Record, error)
}

// Goldmark is the production Renderer. The embedded goldmark.Markdown
// and its chroma highlighting extension are stateless per Convert call,
// so one instance serves all in-flight renders.
type Goldmark struct {
	md     goldmark.Markdown
	global *frontmatter.Global
}

// NewGoldmark builds the shared markdown engine: GFM, auto heading
// IDs, raw HTML passthrough, and class-based chroma highlighting.
// global may be nil when no metadata context was supplied.
func NewGoldmark(global *frontmatter.Global) *Goldmark {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(ghtml.WithUnsafe()),
	)
	return &Goldmark{md: md, global: global}
}

// Render implements Renderer.
func (g *Goldmark) Render(ctx context.Context, src Source) (*post.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, errors.RenderFailed(src.Path, err)
	}

	raw, body, err := frontmatter.Split(content)
	if err != nil {
		if stderrors.Is(err, frontmatter.ErrMissingFrontMatter) {
			return nil, errors.FrontMatterMissing(src.Path)
		}
		return nil, errors.FrontMatterInvalid(src.Path, err)
	}

	meta, flags, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, errors.FrontMatterInvalid(src.Path, err)
	}
	if err := frontmatter.ValidateRefs(meta, g.global); err != nil {
		return nil, errors.FrontMatterInvalid(src.Path, err)
	}

	if flags.Skip {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := g.md.Convert(body, &buf); err != nil {
		return nil, errors.RenderFailed(src.Path, err)
	}

	rewritten, err := RewriteLinks(buf.Bytes())
	if err != nil {
		return nil, errors.RenderFailed(src.Path, err)
	}

	return &post.Record{
		Identity: src.Identity,
		HTML:     string(rewritten),
		Meta:     meta,
		Unlisted: flags.Unlisted,
	}, nil
}
