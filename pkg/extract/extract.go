package extract

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/voxdoc/voxdoc/internal/models"
	"github.com/voxdoc/voxdoc/internal/types"
)

// Registry maps file extensions to format extractors. Raw format parsing
// stays behind this boundary so the core can run on deterministic fakes.
type Registry struct {
	byExt map[string]types.Extractor
}

// NewRegistry wires the built-in extractors. sectionWords bounds the size
// of the sections plain-text documents are paginated into.
func NewRegistry(sectionWords int) *Registry {
	plain := &Plaintext{SectionWords: sectionWords}
	md := &Markdown{Fallback: plain}
	html := &HTML{}

	return &Registry{byExt: map[string]types.Extractor{
		".txt":      plain,
		".text":     plain,
		".md":       md,
		".markdown": md,
		".html":     html,
		".htm":      html,
		".xhtml":    html,
	}}
}

// Register adds or replaces the extractor for an extension.
func (r *Registry) Register(ext string, e types.Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Extract routes the file to the extractor for its extension.
func (r *Registry) Extract(ctx context.Context, path string) (models.Extracted, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return models.Extracted{}, &models.UnsupportedFormatError{Path: path, Format: ext}
	}
	return e.Extract(ctx, path)
}

// formatTag strips the dot so "pdf" rather than ".pdf" lands in metadata.
func formatTag(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// paginateWords splits text into fixed word windows labeled "Section N".
func paginateWords(text string, sectionWords int) []models.Page {
	if sectionWords <= 0 {
		sectionWords = 600
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var pages []models.Page
	for i := 0; i < len(words); i += sectionWords {
		end := i + sectionWords
		if end > len(words) {
			end = len(words)
		}
		idx := i / sectionWords
		pages = append(pages, models.Page{
			Index: idx,
			Label: "Section " + strconv.Itoa(idx+1),
			Text:  strings.Join(words[i:end], " "),
		})
	}
	return pages
}
