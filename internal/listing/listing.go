package listing

import (
	"context"
	"errors"
	"sync"

	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/service"
)

// ErrStaleResponse marks a fetch whose response was superseded by a newer
// request before it could be applied. The controller's state is untouched;
// callers may ignore it.
var ErrStaleResponse = errors.New("stale listing response discarded")

// Filters holds the user-driven filter fields of the listing view.
// Zero values mean "no filter".
type Filters struct {
	Status   string
	Type     string
	Category string
	// Query is the free-text search over title and description.
	Query string
}

// FilterUpdate is a partial filter edit; nil fields are left unchanged.
type FilterUpdate struct {
	Status   *string
	Type     *string
	Category *string
	Query    *string
}

// Pagination is the client-held pagination snapshot. Total and TotalPages
// always come from the last server response, never from local math.
type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// Fetcher issues a listing query. Implemented by the API client and, for
// in-process use, by the document service.
type Fetcher interface {
	FetchDocuments(ctx context.Context, q repository.ListQuery) (*service.DocumentListResult, error)
}

// queryKey is the exact dependency set of a fetch: filters, page, limit.
// Server-derived fields (total, totalPages) are deliberately absent:
// including them re-triggers a fetch on every response and loops forever.
type queryKey struct {
	filters Filters
	page    int
	limit   int
}

// Controller reconciles filter edits, page navigation, and server responses
// for the document listing. A fetch is issued exactly when the query key
// changes; responses apply in issue order so a late response never
// overwrites newer state.
type Controller struct {
	mu      sync.Mutex
	fetcher Fetcher

	filters Filters
	page    int
	limit   int

	items      []model.Document
	total      int
	totalPages int
	lastErr    error

	lastIssued *queryKey
	issueSeq   uint64
	// landedSeq is the highest sequence whose response has landed, whether
	// it succeeded or failed. Anything older is stale.
	landedSeq uint64
}

// NewController builds a Controller starting at page 1 with the given page
// size (repository.DefaultLimit when limit < 1).
func NewController(fetcher Fetcher, limit int) *Controller {
	if limit < 1 {
		limit = repository.DefaultLimit
	}
	return &Controller{
		fetcher: fetcher,
		page:    1,
		limit:   limit,
		items:   []model.Document{},
	}
}

// UpdateFilters merges the provided fields into the current filters and
// resets the page to 1: page numbers from a previous filter set are not
// meaningful under new filters.
func (c *Controller) UpdateFilters(upd FilterUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if upd.Status != nil {
		c.filters.Status = *upd.Status
	}
	if upd.Type != nil {
		c.filters.Type = *upd.Type
	}
	if upd.Category != nil {
		c.filters.Category = *upd.Category
	}
	if upd.Query != nil {
		c.filters.Query = *upd.Query
	}
	c.page = 1
}

// ChangePage sets the current page without touching filters.
func (c *Controller) ChangePage(page int) {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	c.page = page
	c.mu.Unlock()
}

// NeedsFetch reports whether the effective criteria differ from the
// in-flight or last-completed fetch.
func (c *Controller) NeedsFetch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.key()
	return c.lastIssued == nil || *c.lastIssued != key
}

// Sync issues a fetch iff the effective criteria changed since the last
// issued fetch. A failed fetch records the error and preserves the previous
// items and pagination so the caller can keep showing stale-but-valid data.
func (c *Controller) Sync(ctx context.Context) error {
	c.mu.Lock()
	key := c.key()
	if c.lastIssued != nil && *c.lastIssued == key {
		c.mu.Unlock()
		return nil
	}
	issued := key
	c.lastIssued = &issued
	c.issueSeq++
	seq := c.issueSeq
	fetcher := c.fetcher
	q := repository.ListQuery{
		Status:   key.filters.Status,
		Type:     key.filters.Type,
		Category: key.filters.Category,
		Search:   key.filters.Query,
		Page:     key.page,
		Limit:    key.limit,
	}
	c.mu.Unlock()

	res, err := fetcher.FetchDocuments(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()

	// A newer request's response already landed, successfully or not; this
	// one is dead either way. An older success must not resurrect superseded
	// criteria or erase a newer failure.
	if seq <= c.landedSeq {
		return ErrStaleResponse
	}
	c.landedSeq = seq

	if err != nil {
		c.lastErr = err
		return err
	}

	c.items = res.Items
	c.total = res.Total
	c.totalPages = res.TotalPages
	c.lastErr = nil
	return nil
}

// Refresh forces a re-fetch of the current criteria, e.g. after an upload
// batch completes or a status edit lands.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.lastIssued = nil
	c.mu.Unlock()
	return c.Sync(ctx)
}

// Documents returns the current items snapshot.
func (c *Controller) Documents() []model.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Document, len(c.items))
	copy(out, c.items)
	return out
}

// Filters returns the current filter values.
func (c *Controller) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Pagination returns the current page/limit plus the last server-derived
// total and totalPages.
func (c *Controller) Pagination() Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Pagination{
		Page:       c.page,
		Limit:      c.limit,
		Total:      c.total,
		TotalPages: c.totalPages,
	}
}

// Err returns the error of the most recent failed fetch, or nil after a
// successful one.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) key() queryKey {
	return queryKey{filters: c.filters, page: c.page, limit: c.limit}
}
