package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docvault/internal/config"
	"docvault/internal/model"
	"docvault/internal/service"
)

var (
	ErrFileTooLarge   = errors.New("file exceeds maximum size")
	ErrTypeNotAllowed = errors.New("file type not allowed")
	ErrRunning        = errors.New("upload batch already running")
)

// ItemStatus tracks one file through the upload pipeline.
type ItemStatus string

const (
	StatusPending   ItemStatus = "pending"
	StatusUploading ItemStatus = "uploading"
	StatusUploaded  ItemStatus = "uploaded"
	StatusError     ItemStatus = "error"
)

// File is a candidate for upload: a name, a size, a way to open the bytes,
// and optional document metadata.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
	Meta        service.UploadMeta
}

// Item is the observable per-file state. The ID is generated at selection
// time and is unrelated to the eventual document id.
type Item struct {
	ID       string
	Name     string
	Size     int64
	Progress int
	Status   ItemStatus
	// Reason describes a validation rejection or upload failure.
	Reason string
}

// Outcome is the consolidated result of one batch.
type Outcome struct {
	Uploaded int
	Failed   int
	Rejected int
}

// Uploader performs the actual per-file upload. Implemented by the API client.
type Uploader interface {
	UploadDocument(ctx context.Context, file File) (*model.Document, error)
}

type queueItem struct {
	Item
	file     File
	rejected bool
}

// Queue validates a batch of selected files and drives the accepted ones
// through the upload protocol with independent per-item outcomes. One
// item's failure never stops its siblings.
type Queue struct {
	mu          sync.Mutex
	uploader    Uploader
	cfg         config.UploadConfig
	concurrency int
	onComplete  func(Outcome)
	items       []*queueItem
	running     bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithConcurrency enables bounded parallel uploads (k workers). The default
// is sequential processing, which keeps progress reporting simple and the
// ingestion endpoint unstressed.
func WithConcurrency(k int) Option {
	return func(q *Queue) {
		if k > 1 {
			q.concurrency = k
		}
	}
}

// WithOnComplete registers a callback invoked exactly once per batch after
// every item has resolved, typically to refresh the document listing.
func WithOnComplete(fn func(Outcome)) Option {
	return func(q *Queue) { q.onComplete = fn }
}

// New builds an upload queue with the given acceptance rules.
func New(u Uploader, cfg config.UploadConfig, opts ...Option) *Queue {
	q := &Queue{
		uploader:    u,
		cfg:         cfg,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Add validates the candidates against the acceptance rules before any
// network activity. Rejected files are recorded with a reason and never
// enter the upload phase; they do not block other files in the batch.
// The returned snapshot covers the whole batch so far.
func (q *Queue) Add(files ...File) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, f := range files {
		it := &queueItem{
			Item: Item{
				ID:     uuid.NewString(),
				Name:   f.Name,
				Size:   f.Size,
				Status: StatusPending,
			},
			file: f,
		}
		if err := q.validate(f); err != nil {
			it.Status = StatusError
			it.Reason = err.Error()
			it.rejected = true
		}
		q.items = append(q.items, it)
	}
	return q.snapshotLocked()
}

func (q *Queue) validate(f File) error {
	if q.cfg.MaxFileSize > 0 && f.Size > q.cfg.MaxFileSize {
		return fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, f.Name, f.Size, q.cfg.MaxFileSize)
	}
	if len(q.cfg.AllowedTypes) > 0 {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
		allowed := false
		for _, t := range q.cfg.AllowedTypes {
			if ext == t {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %q", ErrTypeNotAllowed, ext)
		}
	}
	return nil
}

// Run processes every accepted item, one in flight at a time unless
// WithConcurrency raised the limit. Items already uploaded are skipped.
// After all items resolve the completion callback fires once and the
// internal list is cleared; the batch is not retained as history.
func (q *Queue) Run(ctx context.Context) (Outcome, error) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return Outcome{}, ErrRunning
	}
	q.running = true
	batch := q.items
	limit := q.concurrency
	q.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(limit)
	for _, it := range batch {
		if it.rejected || q.status(it) == StatusUploaded {
			continue
		}
		g.Go(func() error {
			q.upload(ctx, it)
			// Per-item failures stay on the item; returning them would
			// make errgroup cancel the siblings.
			return nil
		})
	}
	_ = g.Wait()

	var out Outcome
	q.mu.Lock()
	for _, it := range batch {
		switch {
		case it.rejected:
			out.Rejected++
		case it.Status == StatusUploaded:
			out.Uploaded++
		case it.Status == StatusError:
			out.Failed++
		}
	}
	q.items = nil
	q.running = false
	onComplete := q.onComplete
	q.mu.Unlock()

	if onComplete != nil {
		onComplete(out)
	}
	return out, nil
}

func (q *Queue) upload(ctx context.Context, it *queueItem) {
	q.setStatus(it, StatusUploading, "")
	_, err := q.uploader.UploadDocument(ctx, it.file)
	if err != nil {
		q.setStatus(it, StatusError, err.Error())
		return
	}
	q.mu.Lock()
	it.Status = StatusUploaded
	it.Progress = 100
	q.mu.Unlock()
}

func (q *Queue) status(it *queueItem) ItemStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return it.Status
}

func (q *Queue) setStatus(it *queueItem, s ItemStatus, reason string) {
	q.mu.Lock()
	it.Status = s
	it.Reason = reason
	q.mu.Unlock()
}

// Items returns a snapshot of the current batch for progress display.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

func (q *Queue) snapshotLocked() []Item {
	out := make([]Item, len(q.items))
	for i, it := range q.items {
		out[i] = it.Item
	}
	return out
}
