package reader

// Viewer is the page-navigation surface of the document viewer. It reports
// page changes through Pagination.PageChanged.
type Viewer interface {
	JumpToPage(n int)
	JumpToNextPage()
	JumpToPreviousPage()
	TotalPages() int
}

// Pagination is the single source of truth for the current page.
type Pagination struct {
	viewer  Viewer
	current int
	total   int
	subs    map[int]func(page int)
	nextSub int
}

func NewPagination(v Viewer) *Pagination {
	return &Pagination{viewer: v, subs: make(map[int]func(int))}
}

// Loaded records the page count once the document is available.
func (p *Pagination) Loaded(total int) {
	p.total = total
	if total < 1 {
		p.current = 0
		return
	}
	if p.current < 1 || p.current > total {
		p.current = 1
	}
}

func (p *Pagination) Current() int { return p.current }
func (p *Pagination) Total() int { return p.total }

// GoTo moves to page n, clamped to the document. It returns the target and
// whether a jump was requested.
func (p *Pagination) GoTo(n int) (int, bool) {
	if p.total < 1 {
		return p.current, false
	}
	if n < 1 {
		n = 1
	}
	if n > p.total {
		n = p.total
	}
	if n == p.current {
		return n, false
	}
	p.viewer.JumpToPage(n)
	return n, true
}

func (p *Pagination) Next() (int, bool) {
	if p.total < 1 || p.current >= p.total {
		return p.current, false
	}
	p.viewer.JumpToNextPage()
	return p.current + 1, true
}

func (p *Pagination) Previous() (int, bool) {
	if p.total < 1 || p.current <= 1 {
		return p.current, false
	}
	p.viewer.JumpToPreviousPage()
	return p.current - 1, true
}

// PageChanged is the viewer's callback. Subscribers hear about each actual
// change once.
func (p *Pagination) PageChanged(page int) {
	if p.total < 1 || page < 1 || page > p.total || page == p.current {
		return
	}
	p.current = page
	for i := 0; i < p.nextSub; i++ {
		if fn, ok := p.subs[i]; ok {
			fn(page)
		}
	}
}

func (p *Pagination) Subscribe(fn func(page int)) (unsubscribe func()) {
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() { delete(p.subs, id) }
}
