package document

// Zoom bounds for the text viewer, in percent.
const (
	MinZoom  = 50
	MaxZoom  = 300
	zoomStep = 25
)

// Viewer is an in-memory page viewer over a Document. It reports page
// changes through the callback registered with OnPageChanged.
type Viewer struct {
	doc     *Document
	page    int
	zoom    int
	changed func(page int)
}

func NewViewer(doc *Document) *Viewer {
	return &Viewer{doc: doc, page: 1, zoom: 100}
}

func (v *Viewer) Document() *Document {
	return v.doc
}

// OnPageChanged registers fn to be called after every page change.
func (v *Viewer) OnPageChanged(fn func(page int)) {
	v.changed = fn
}

func (v *Viewer) TotalPages() int {
	return v.doc.TotalPages()
}

func (v *Viewer) CurrentPage() int {
	return v.page
}

func (v *Viewer) JumpToPage(n int) {
	if n < 1 || n > v.TotalPages() || n == v.page {
		return
	}
	v.page = n
	if v.changed != nil {
		v.changed(n)
	}
}

func (v *Viewer) JumpToNextPage() {
	v.JumpToPage(v.page + 1)
}

func (v *Viewer) JumpToPreviousPage() {
	v.JumpToPage(v.page - 1)
}

// ZoomIn reports whether the zoom level changed.
func (v *Viewer) ZoomIn() bool {
	if v.zoom >= MaxZoom {
		return false
	}
	v.zoom += zoomStep
	return true
}

func (v *Viewer) ZoomOut() bool {
	if v.zoom <= MinZoom {
		return false
	}
	v.zoom -= zoomStep
	return true
}

// Zoom returns the zoom level in percent.
func (v *Viewer) Zoom() int {
	return v.zoom
}

// PageText returns the text of page n.
func (v *Viewer) PageText(n int) (string, error) {
	return v.doc.PageText(n)
}
