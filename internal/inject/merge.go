package inject

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docpartials/internal/partial"
)

// ErrAnchorNotFound is returned when a document has no element for the location.
var ErrAnchorNotFound = stderrors.New("injection anchor not found")

// anchors are byte offsets into a document for one location.
type anchors struct {
	// afterOpen is the offset just past the first start tag.
	afterOpen int
	// beforeClose is the offset of the last end tag.
	beforeClose int
	hasOpen     bool
	hasClose    bool
}

// findAnchors tokenizes markup so that tags inside comments, scripts or
// attribute values are never mistaken for anchors.
func findAnchors(markup []byte, loc partial.Location) anchors {
	var a anchors
	z := html.NewTokenizer(bytes.NewReader(markup))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return anchors{}
			}
			return a
		}
		raw := len(z.Raw())
		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			if !a.hasOpen && string(name) == string(loc) {
				a.afterOpen = offset + raw
				a.hasOpen = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == string(loc) {
				a.beforeClose = offset
				a.hasClose = true
			}
		}
		offset += raw
	}
}

// Merge inserts fragment into markup at loc. High priority fragments go
// directly after the opening tag, low priority ones directly before the last
// closing tag.
func Merge(markup []byte, fragment string, loc partial.Location, prio partial.Priority) ([]byte, error) {
	a := findAnchors(markup, loc)
	var at int
	switch {
	case prio == partial.PriorityHigh && a.hasOpen:
		at = a.afterOpen
	case prio != partial.PriorityHigh && a.hasClose:
		at = a.beforeClose
	default:
		return nil, fmt.Errorf("%w: <%s> (%s priority)", ErrAnchorNotFound, loc, prio)
	}
	out := make([]byte, 0, len(markup)+len(fragment))
	out = append(out, markup[:at]...)
	out = append(out, fragment...)
	out = append(out, markup[at:]...)
	return out, nil
}
