// Package document holds the text being read aloud, split into pages.
package document

import (
	"crypto/sha1"
	"fmt"
	"strings"
)

// DefaultLinesPerPage is used when no page size is configured.
const DefaultLinesPerPage = 40

type Document struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source"`
	Pages  []string
}

// New paginates text into a Document. An empty id is replaced by a content hash.
func New(id, title, source, text string, linesPerPage int) *Document {
	if id == "" {
		id = ContentID(text)
	}
	if title == "" {
		title = guessTitle(text)
	}
	return &Document{
		ID:     id,
		Title:  title,
		Source: source,
		Pages:  Paginate(text, linesPerPage),
	}
}

func (d *Document) TotalPages() int {
	return len(d.Pages)
}

// PageText returns the text of page n, counting from 1.
func (d *Document) PageText(n int) (string, error) {
	if n < 1 || n > len(d.Pages) {
		return "", fmt.Errorf("page %d out of range [1, %d]", n, len(d.Pages))
	}
	return d.Pages[n-1], nil
}

// ContentID derives a stable document id from its text.
func ContentID(text string) string {
	return fmt.Sprintf("doc-%x", sha1.Sum([]byte(text)))[:16]
}

// Paginate splits text on form feeds when it has any, otherwise every
// linesPerPage lines. Blank pages are dropped; the result always has at least
// one page.
func Paginate(text string, linesPerPage int) []string {
	if linesPerPage <= 0 {
		linesPerPage = DefaultLinesPerPage
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var raw []string
	if strings.Contains(text, "\f") {
		raw = strings.Split(text, "\f")
	} else {
		lines := strings.Split(text, "\n")
		for i := 0; i < len(lines); i += linesPerPage {
			end := i + linesPerPage
			if end > len(lines) {
				end = len(lines)
			}
			raw = append(raw, strings.Join(lines[i:end], "\n"))
		}
	}

	pages := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			pages = append(pages, p)
		}
	}
	if len(pages) == 0 {
		pages = append(pages, "")
	}
	return pages
}

func guessTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return cleanTitle(line)
		}
	}
	return "Untitled"
}

const maxTitleRunes = 80

// cleanTitle strips the boilerplate Project Gutenberg puts on its first line.
func cleanTitle(title string) string {
	title = strings.TrimPrefix(strings.TrimSpace(title), "\ufeff")
	for _, prefix := range []string{"The Project Gutenberg eBook of ", "The Project Gutenberg EBook of "} {
		title = strings.TrimPrefix(title, prefix)
	}
	title = strings.Replace(title, "(English)", "", 1)
	if r := []rune(title); len(r) > maxTitleRunes {
		title = string(r[:maxTitleRunes])
	}
	return strings.TrimSpace(title)
}
