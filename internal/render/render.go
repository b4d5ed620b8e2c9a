// Package render formats selected articles as markdown and splices the
// result into the marker-delimited region of a README document.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/octoflow-labs/readme-articles/internal/domain"
)

// ErrMarkerNotFound indicates the target document has a missing,
// duplicated or out-of-order marker line. Nothing is safe to write in
// that state, so callers must treat it as fatal.
var ErrMarkerNotFound = errors.New("marker not found")

// Markers is the sentinel line pair delimiting the managed region.
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers returns the standard README marker pair.
func DefaultMarkers() Markers {
	return Markers{
		Start: "<!-- ARTICLES -->",
		End:   "<!-- /ARTICLES -->",
	}
}

// Fragment renders the article list as a markdown bullet list. Articles
// with a known publication date get it appended in YYYY-MM-DD form.
func Fragment(articles []domain.Article) string {
	if len(articles) == 0 {
		return ""
	}

	var b strings.Builder
	for _, a := range articles {
		b.WriteString("- [")
		b.WriteString(sanitizeTitle(a.Title))
		b.WriteString("](")
		b.WriteString(a.URL)
		b.WriteString(")")
		if a.HasDate() {
			b.WriteString(" (")
			b.WriteString(a.PublishedAt.Format("2006-01-02"))
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// RenderArticles produces the new document with the article fragment
// substituted between the markers.
func RenderArticles(doc string, articles []domain.Article, m Markers) (string, error) {
	return Render(doc, Fragment(articles), m)
}

// Render replaces the marker-delimited region of doc with fragment.
// Every byte outside the region, including the marker lines themselves,
// is preserved exactly. Rendering the same fragment twice is a no-op.
func Render(doc, fragment string, m Markers) (string, error) {
	start, err := locateMarker(doc, m.Start)
	if err != nil {
		return "", err
	}
	end, err := locateMarker(doc, m.End)
	if err != nil {
		return "", err
	}
	if end.lineStart < start.lineEnd {
		return "", fmt.Errorf("end marker %q precedes start marker %q: %w", m.End, m.Start, ErrMarkerNotFound)
	}

	var b strings.Builder
	b.Grow(start.lineEnd + len(fragment) + 1 + (len(doc) - end.lineStart))
	b.WriteString(doc[:start.lineEnd])
	if fragment != "" {
		b.WriteString(fragment)
		b.WriteString("\n")
	}
	b.WriteString(doc[end.lineStart:])
	return b.String(), nil
}

// markerPos holds the byte range of a marker line. lineEnd sits after
// the line's newline; lineStart at the first byte of the line.
type markerPos struct {
	lineStart int
	lineEnd   int
}

// locateMarker finds the single line whose trimmed content equals the
// marker. Zero or multiple occurrences are both ErrMarkerNotFound.
func locateMarker(doc, marker string) (markerPos, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return markerPos{}, fmt.Errorf("marker is empty: %w", ErrMarkerNotFound)
	}

	var (
		found markerPos
		count int
	)

	lineStart := 0
	for lineStart <= len(doc) {
		lineEnd := strings.IndexByte(doc[lineStart:], '\n')
		var next int
		if lineEnd == -1 {
			lineEnd = len(doc)
			next = len(doc) + 1
		} else {
			lineEnd = lineStart + lineEnd + 1
			next = lineEnd
		}

		line := doc[lineStart:lineEnd]
		if strings.TrimSpace(line) == marker {
			count++
			found = markerPos{lineStart: lineStart, lineEnd: lineEnd}
		}
		lineStart = next
	}

	switch count {
	case 1:
		return found, nil
	case 0:
		return markerPos{}, fmt.Errorf("marker %q absent from document: %w", marker, ErrMarkerNotFound)
	default:
		return markerPos{}, fmt.Errorf("marker %q appears %d times: %w", marker, count, ErrMarkerNotFound)
	}
}

// sanitizeTitle keeps titles on one markdown line and balances link
// syntax characters.
func sanitizeTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	replacer := strings.NewReplacer("[", "\\[", "]", "\\]")
	return replacer.Replace(title)
}
