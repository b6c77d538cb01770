package text

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/maauso/mediamanip/internal/apperr"
	"github.com/maauso/mediamanip/internal/storage"
)

// Transform names the whole-buffer rewrites a Buffer can apply.
type Transform string

const (
	TransformUpper       Transform = "upper"
	TransformLower       Transform = "lower"
	TransformRevLines    Transform = "rev_lines"
	TransformSort        Transform = "sort"
	TransformRemoveBlank Transform = "rm_blank"
)

var transforms = map[Transform]func(string) string{
	TransformUpper:       Upper,
	TransformLower:       Lower,
	TransformRevLines:    ReverseLines,
	TransformSort:        SortLines,
	TransformRemoveBlank: RemoveBlankLines,
}

// Buffer is the text working copy: the full file contents, edited in place.
type Buffer struct {
	content string
}

// Open reads path, decodes it best effort and normalises line breaks to \n.
func Open(path string) (*Buffer, error) {
	b, err := os.ReadFile(path) // #nosec G304 - path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", apperr.ErrReadFailure, path, err)
	}
	return &Buffer{content: NormalizeNewlines(Decode(b))}, nil
}

// NewBuffer wraps s.
func NewBuffer(s string) *Buffer {
	return &Buffer{content: s}
}

// String returns the current contents.
func (b *Buffer) String() string {
	return b.content
}

// Stats counts the current contents.
func (b *Buffer) Stats() Stats {
	return Count(b.content)
}

// Frequency returns the letter frequency table of the current contents.
func (b *Buffer) Frequency() []CharCount {
	return Frequency(b.content)
}

// Replace rewrites all occurrences of find and reports how many there were.
func (b *Buffer) Replace(find, repl string) int {
	n := 0
	if find != "" {
		n = strings.Count(b.content, find)
	}
	b.content = Replace(b.content, find, repl)
	return n
}

// Apply runs the named transform on the buffer.
func (b *Buffer) Apply(t Transform) error {
	fn, ok := transforms[t]
	if !ok {
		return fmt.Errorf("%w: text transform %q", apperr.ErrUnknownTool, t)
	}
	b.content = fn(b.content)
	return nil
}

// Export writes the buffer as UTF-8 to dest through store.
func (b *Buffer) Export(ctx context.Context, store storage.Storage, dest string) (string, error) {
	loc, err := store.Put(ctx, dest, strings.NewReader(b.content))
	if err != nil {
		return "", fmt.Errorf("%w: save %s: %w", apperr.ErrWriteFailure, dest, err)
	}
	return loc, nil
}
