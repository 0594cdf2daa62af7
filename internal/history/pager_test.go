package history

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/tutoria/server/internal/chaterr"
)

// list view where each message is one line tall
type listView struct {
	messages  []Message
	scrollTop int
	errors    []*chaterr.Error
}

func (v *listView) ContentHeight() int         { return len(v.messages) }
func (v *listView) ScrollTop() int             { return v.scrollTop }
func (v *listView) SetScrollTop(top int)       { v.scrollTop = top }
func (v *listView) Append(msg Message)         { v.messages = append(v.messages, msg) }
func (v *listView) ShowError(e *chaterr.Error) { v.errors = append(v.errors, e) }

func (v *listView) InsertBeforeOldest(msg Message) {
	v.messages = append([]Message{msg}, v.messages...)
}

func (v *listView) contents() []string {
	out := make([]string, len(v.messages))
	for i, msg := range v.messages {
		out[i] = msg.Content
	}

	return out
}

type pageFetcher struct {
	pages map[int]*Page
	err   error
	calls []int
}

func (f *pageFetcher) FetchHistory(_ context.Context, _, offset int) (*Page, error) {
	f.calls = append(f.calls, offset)
	if f.err != nil {
		return nil, f.err
	}

	return f.pages[offset], nil
}

func page(hasMore bool, ids ...int) *Page {
	p := &Page{HasMore: hasMore}
	for _, id := range ids {
		p.Messages = append(p.Messages, Message{ID: fmt.Sprint(id), Role: RoleAssistant, Content: fmt.Sprintf("m%d", id)})
	}

	return p
}

func TestPager_FirstPageReversedThenOlderPrepended(t *testing.T) {
	view := &listView{}
	fetcher := &pageFetcher{pages: map[int]*Page{
		0: page(true, 10, 9, 8),
		3: page(false, 7, 6, 5),
	}}
	pager := NewPager(view, 3)

	require.True(t, pager.Load(context.Background(), fetcher))
	assert.Equal(t, []string{"m8", "m9", "m10"}, view.contents())

	view.scrollTop = 1
	require.True(t, pager.NearTop(view.scrollTop))
	require.True(t, pager.Load(context.Background(), fetcher))

	assert.Equal(t, []string{"m5", "m6", "m7", "m8", "m9", "m10"}, view.contents())
	assert.Equal(t, 4, view.scrollTop, "scroll anchor shifts by the inserted height")
	assert.Equal(t, []int{0, 3}, fetcher.calls)
	assert.False(t, pager.HasMore())

	// nothing left, further scrolling does not fetch
	assert.False(t, pager.NearTop(0))
	assert.False(t, pager.Load(context.Background(), fetcher))
}

func TestPager_SingleFlight(t *testing.T) {
	pager := NewPager(&listView{}, 20)

	limit, offset, ok := pager.Begin()
	require.True(t, ok)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	_, _, ok = pager.Begin()
	assert.False(t, ok)
	assert.True(t, pager.Loading())

	pager.Finish(page(true, 3, 2, 1), nil)
	assert.False(t, pager.Loading())
	assert.Equal(t, 3, pager.Offset())
}

func TestPager_ErrorKeepsOffset(t *testing.T) {
	view := &listView{}
	fetcher := &pageFetcher{pages: map[int]*Page{0: page(true, 2, 1)}}
	pager := NewPager(view, 2)

	pager.Load(context.Background(), fetcher)

	fetcher.err = errors.New("502 bad gateway")
	pager.Load(context.Background(), fetcher)

	assert.Equal(t, 2, pager.Offset())
	assert.False(t, pager.Loading())
	assert.True(t, pager.HasMore())
	require.Len(t, view.errors, 1)
	assert.Equal(t, chaterr.HistoryFetchFailure, view.errors[0].Kind)

	// a retry is a new explicit trigger and uses the same offset
	fetcher.err = nil
	pager.Load(context.Background(), fetcher)
	assert.Equal(t, []int{0, 2, 2}, fetcher.calls)
}

func TestPager_EmptyPageStops(t *testing.T) {
	view := &listView{}
	pager := NewPager(view, 20)

	pager.Finish(&Page{HasMore: true}, nil)

	assert.False(t, pager.HasMore())
	assert.True(t, pager.Loaded())
	assert.Empty(t, view.messages)
}

func TestPager_NearTopNeedsFirstPage(t *testing.T) {
	pager := NewPager(&listView{}, 20).WithThreshold(5)

	assert.False(t, pager.NearTop(0), "drawer-open owns the first load")

	pager.Finish(page(true, 1), nil)
	assert.True(t, pager.NearTop(5))
	assert.False(t, pager.NearTop(6))
}

func TestPager_Reset(t *testing.T) {
	pager := NewPager(&listView{}, 20)
	pager.Finish(page(false, 1), nil)

	pager.Reset()

	assert.True(t, pager.HasMore())
	assert.Equal(t, 0, pager.Offset())
	assert.False(t, pager.Loaded())
}

func TestClamp(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 20, 0},
		{-5, -1, 20, 0},
		{1, 10, 1, 10},
		{100, 0, 100, 0},
		{101, 0, 100, 0},
		{50, 7, 50, 7},
	}

	for _, tt := range tests {
		limit, offset := Clamp(tt.limit, tt.offset)
		assert.Equal(t, tt.wantLimit, limit)
		assert.Equal(t, tt.wantOffset, offset)
	}
}
