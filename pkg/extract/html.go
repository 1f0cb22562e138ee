package extract

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/voxdoc/voxdoc/internal/models"
)

// HTML extracts readable text from markup files, sectioned at headings.
type HTML struct{}

// contentSelectors are tried in order before falling back to body.
var contentSelectors = []string{
	"main",
	"article",
	".content",
	"#content",
	".documentation",
	"#documentation",
}

func (h *HTML) Extract(ctx context.Context, path string) (models.Extracted, error) {
	if err := ctx.Err(); err != nil {
		return models.Extracted{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return models.Extracted{}, &models.CorruptFileError{Path: path, Err: err}
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return models.Extracted{}, &models.CorruptFileError{Path: path, Err: err}
	}

	root := doc.Find("body")
	for _, selector := range contentSelectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			root = selected
			break
		}
	}

	title := strings.TrimSpace(doc.Find("title").Text())
	if title == "" {
		title = filepath.Base(path)
	}

	pages := sectionByHeadings(root)
	if len(pages) == 0 {
		text := cleanWhitespace(root.Text())
		if text != "" {
			pages = []models.Page{{Index: 0, Label: title, Text: text}}
		}
	}

	return models.Extracted{
		Title:  title,
		Format: formatTag(path),
		Pages:  pages,
	}, nil
}

// sectionByHeadings splits the content at h1-h3 elements, labeling each
// section with its heading text.
func sectionByHeadings(root *goquery.Selection) []models.Page {
	headings := root.Find("h1, h2, h3")
	if headings.Length() == 0 {
		return nil
	}

	var pages []models.Page
	headings.Each(func(i int, heading *goquery.Selection) {
		var parts []string
		for node := heading.Next(); node.Length() > 0; node = node.Next() {
			if goquery.NodeName(node) == "h1" || goquery.NodeName(node) == "h2" || goquery.NodeName(node) == "h3" {
				break
			}
			parts = append(parts, node.Text())
		}
		text := cleanWhitespace(strings.Join(parts, " "))
		if text == "" {
			return
		}
		label := cleanWhitespace(heading.Text())
		if label == "" {
			label = "Chapter " + strconv.Itoa(len(pages)+1)
		}
		pages = append(pages, models.Page{Index: len(pages), Label: label, Text: text})
	})
	return pages
}

func cleanWhitespace(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
