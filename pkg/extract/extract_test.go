package extract_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxdoc/voxdoc/internal/models"
	"github.com/voxdoc/voxdoc/pkg/extract"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistry_UnsupportedExtension(t *testing.T) {
	r := extract.NewRegistry(0)

	_, err := r.Extract(context.Background(), "slides.pptx")
	var unsupported *models.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, ".pptx", unsupported.Format)
}

func TestRegistry_MissingFile(t *testing.T) {
	r := extract.NewRegistry(0)

	_, err := r.Extract(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	var corrupt *models.CorruptFileError
	require.ErrorAs(t, err, &corrupt)
}

func TestPlaintext_PaginatesByWordWindow(t *testing.T) {
	r := extract.NewRegistry(10)
	path := writeFile(t, "notes.txt", strings.Repeat("word ", 25))

	extracted, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "txt", extracted.Format)
	require.Len(t, extracted.Pages, 3, "25 words in windows of 10")
	assert.Equal(t, "Section 1", extracted.Pages[0].Label)
	assert.Equal(t, "Section 3", extracted.Pages[2].Label)
	assert.Len(t, strings.Fields(extracted.Pages[0].Text), 10)
	assert.Len(t, strings.Fields(extracted.Pages[2].Text), 5)
}

func TestPlaintext_EmptyFile(t *testing.T) {
	r := extract.NewRegistry(0)
	path := writeFile(t, "empty.txt", "   \n\n  ")

	extracted, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, extracted.Pages)
}

func TestMarkdown_SectionsAtHeadings(t *testing.T) {
	r := extract.NewRegistry(0)
	content := `# Introduction

Welcome to the guide.

## Setup

Install the thing first.

# Usage

Run it like this.
`
	path := writeFile(t, "guide.md", content)

	extracted, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, extracted.Pages, 3)
	assert.Equal(t, "Introduction", extracted.Pages[0].Label)
	assert.Equal(t, "Setup", extracted.Pages[1].Label)
	assert.Equal(t, "Usage", extracted.Pages[2].Label)
	assert.Equal(t, "Welcome to the guide.", extracted.Pages[0].Text)
	assert.Equal(t, 2, extracted.Pages[2].Index)
}

func TestMarkdown_NoHeadingsFallsBackToWordWindows(t *testing.T) {
	r := extract.NewRegistry(5)
	path := writeFile(t, "plain.md", "just some words with no headings at all here")

	extracted, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, extracted.Pages, 2)
	assert.Equal(t, "Section 1", extracted.Pages[0].Label)
}

func TestMarkdown_PreambleBeforeFirstHeading(t *testing.T) {
	r := extract.NewRegistry(0)
	content := `Some preamble text.

# First

Body of first.
`
	path := writeFile(t, "pre.md", content)

	extracted, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, extracted.Pages, 2)
	assert.Equal(t, "Section 1", extracted.Pages[0].Label)
	assert.Equal(t, "Some preamble text.", extracted.Pages[0].Text)
	assert.Equal(t, "First", extracted.Pages[1].Label)
}

func TestHTML_SectionsAtHeadings(t *testing.T) {
	r := extract.NewRegistry(0)
	content := `<html><head><title>My Manual</title></head><body>
<main>
<h1>Getting Started</h1>
<p>Plug it in.</p>
<p>Turn it on.</p>
<h2>Troubleshooting</h2>
<p>Turn it off and on again.</p>
</main>
</body></html>`
	path := writeFile(t, "manual.html", content)

	extracted, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "My Manual", extracted.Title)
	require.Len(t, extracted.Pages, 2)
	assert.Equal(t, "Getting Started", extracted.Pages[0].Label)
	assert.Equal(t, "Plug it in. Turn it on.", extracted.Pages[0].Text)
	assert.Equal(t, "Troubleshooting", extracted.Pages[1].Label)
}

func TestHTML_NoHeadingsSinglePage(t *testing.T) {
	r := extract.NewRegistry(0)
	content := `<html><head><title>Flat</title></head><body><p>Only   a little  text.</p></body></html>`
	path := writeFile(t, "flat.html", content)

	extracted, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, extracted.Pages, 1)
	assert.Equal(t, "Flat", extracted.Pages[0].Label)
	assert.Equal(t, "Only a little text.", extracted.Pages[0].Text)
}

func TestRegistry_ContextCancellation(t *testing.T) {
	r := extract.NewRegistry(0)
	path := writeFile(t, "notes.txt", "some text")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
