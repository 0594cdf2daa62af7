package history

import (
	"context"

	"codeberg.org/tutoria/server/internal/chaterr"
	"codeberg.org/tutoria/server/internal/logger"
)

// loads older messages page by page into a View, keeping the reader's
// place when pages are prepended; one load at a time
type Pager struct {
	view      View
	limit     int
	threshold int

	offset  int
	hasMore bool
	loading bool
	loaded  bool
}

func NewPager(view View, limit int) *Pager {
	limit, _ = Clamp(limit, 0)

	return &Pager{
		view:      view,
		limit:     limit,
		threshold: DefaultNearTopThreshold,
		hasMore:   true,
	}
}

// overrides the near-top distance
func (p *Pager) WithThreshold(threshold int) *Pager {
	p.threshold = threshold
	return p
}

func (p *Pager) Offset() int {
	return p.offset
}

func (p *Pager) HasMore() bool {
	return p.hasMore
}

func (p *Pager) Loading() bool {
	return p.loading
}

// reports whether the first page has been rendered
func (p *Pager) Loaded() bool {
	return p.loaded
}

// forgets all paging state, used when the session changes
func (p *Pager) Reset() {
	p.offset = 0
	p.hasMore = true
	p.loading = false
	p.loaded = false
}

// reports whether a scroll position warrants loading the next page
func (p *Pager) NearTop(scrollTop int) bool {
	return scrollTop <= p.threshold && p.hasMore && !p.loading && p.loaded
}

// claims the single load slot; ok is false when a load is already in flight
// or nothing is left to load
func (p *Pager) Begin() (limit, offset int, ok bool) {
	if p.loading || !p.hasMore {
		return 0, 0, false
	}

	p.loading = true

	return p.limit, p.offset, true
}

// renders the result of the load started by Begin
func (p *Pager) Finish(page *Page, err error) {
	p.loading = false

	if err != nil {
		logger.Warn("history load failed", "offset", p.offset, "error", err)
		p.view.ShowError(chaterr.Wrap(chaterr.HistoryFetchFailure, err))
		return
	}

	if page == nil || len(page.Messages) == 0 {
		p.hasMore = false
		p.loaded = true
		return
	}

	if !p.loaded {
		// newest-first, so walk backwards to append in chronological order
		for i := len(page.Messages) - 1; i >= 0; i-- {
			p.view.Append(page.Messages[i])
		}

		p.loaded = true
	} else {
		before := p.view.ContentHeight()

		for _, msg := range page.Messages {
			p.view.InsertBeforeOldest(msg)
		}

		delta := p.view.ContentHeight() - before
		p.view.SetScrollTop(p.view.ScrollTop() + delta)
	}

	p.offset += len(page.Messages)
	p.hasMore = page.HasMore
}

// runs one full load synchronously; returns false when nothing was started
func (p *Pager) Load(ctx context.Context, fetcher Fetcher) bool {
	limit, offset, ok := p.Begin()
	if !ok {
		return false
	}

	page, err := fetcher.FetchHistory(ctx, limit, offset)
	p.Finish(page, err)

	return true
}
