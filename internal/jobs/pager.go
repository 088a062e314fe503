package jobs

import "sync"

// Pager is a page cursor over a changing job count. Moving past either end
// is a no-op.
type Pager struct {
	mu         sync.Mutex
	pageSize   int
	page       int
	totalPages int
}

// NewPager starts on page one.
func NewPager(pageSize int) *Pager {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Pager{pageSize: pageSize, page: 1, totalPages: 1}
}

// SetTotal updates the job count and re-clamps the current page.
func (p *Pager) SetTotal(jobs int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalPages = max((jobs+p.pageSize-1)/p.pageSize, 1)
	p.page = clamp(p.page, p.totalPages)
}

// Next advances one page if there is one and returns the current page.
func (p *Pager) Next() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.page < p.totalPages {
		p.page++
	}
	return p.page
}

// Prev goes back one page if there is one and returns the current page.
func (p *Pager) Prev() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.page > 1 {
		p.page--
	}
	return p.page
}

// Page returns the current page.
func (p *Pager) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// TotalPages returns the current page count.
func (p *Pager) TotalPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalPages
}
