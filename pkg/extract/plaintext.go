package extract

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/voxdoc/voxdoc/internal/models"
)

// Plaintext paginates raw text files into fixed word windows.
type Plaintext struct {
	SectionWords int
}

func (p *Plaintext) Extract(ctx context.Context, path string) (models.Extracted, error) {
	if err := ctx.Err(); err != nil {
		return models.Extracted{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Extracted{}, &models.CorruptFileError{Path: path, Err: err}
	}
	return models.Extracted{
		Title:  filepath.Base(path),
		Format: formatTag(path),
		Pages:  paginateWords(string(data), p.SectionWords),
	}, nil
}

// Markdown sections a document at its headings, labeling each section
// with the heading text. Files without headings fall back to word-window
// pagination.
type Markdown struct {
	Fallback *Plaintext
}

func (m *Markdown) Extract(ctx context.Context, path string) (models.Extracted, error) {
	if err := ctx.Err(); err != nil {
		return models.Extracted{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Extracted{}, &models.CorruptFileError{Path: path, Err: err}
	}

	lines := strings.Split(string(data), "\n")
	var pages []models.Page
	var body []string
	label := ""

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text == "" {
			return
		}
		idx := len(pages)
		if label == "" {
			label = "Section " + strconv.Itoa(idx+1)
		}
		pages = append(pages, models.Page{Index: idx, Label: label, Text: text})
		body = body[:0]
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			flush()
			label = strings.TrimSpace(strings.TrimLeft(line, "# "))
			continue
		}
		body = append(body, line)
	}
	flush()

	if len(pages) == 0 {
		return m.Fallback.Extract(ctx, path)
	}
	return models.Extracted{
		Title:  filepath.Base(path),
		Format: formatTag(path),
		Pages:  pages,
	}, nil
}
