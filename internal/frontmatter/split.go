// Package frontmatter splits the YAML metadata block off a markdown
// post and validates it against the closed post schema.
package frontmatter

import (
	"bytes"
	"errors"
)

// ErrMissingFrontMatter indicates the document does not start with a
// YAML front-matter block, or the block is never closed.
var ErrMissingFrontMatter = errors.New("front matter block missing or unterminated")

// Split separates the `---` delimited YAML block from the markdown
// body. Posts without a block are an error: every post carries
// metadata. CRLF documents are handled by newline detection.
func Split(content []byte) (raw []byte, body []byte, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, nil, ErrMissingFrontMatter
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Empty block; schema validation will reject the missing fields.
		return []byte{}, rest[len(open):], nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// A closing delimiter at EOF without a trailing newline still counts.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(rest, tail) {
			return rest[:len(rest)-len(tail)+len(nl)], []byte{}, nil
		}
		return nil, nil, ErrMissingFrontMatter
	}

	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
