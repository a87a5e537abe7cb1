package uploader_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"docvault/internal/config"
	"docvault/internal/model"
	"docvault/internal/uploader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"docvault/internal/uploader/mocks"
)

func testConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxFileSize:  1024,
		AllowedTypes: []string{"pdf", "txt"},
	}
}

func testFile(name string, size int64) uploader.File {
	return uploader.File{
		Name: name,
		Size: size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("data")), nil
		},
	}
}

func TestQueue_AddValidation(t *testing.T) {
	tests := []struct {
		name       string
		file       uploader.File
		wantStatus uploader.ItemStatus
		wantReason string
	}{
		{"accepted", testFile("a.pdf", 100), uploader.StatusPending, ""},
		{"oversized", testFile("big.pdf", 4096), uploader.StatusError, "exceeds maximum size"},
		{"type not allowed", testFile("virus.exe", 10), uploader.StatusError, "not allowed"},
		{"no extension", testFile("README", 10), uploader.StatusError, "not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := uploader.New(new(mocks.MockUploader), testConfig())
			items := q.Add(tt.file)

			assert.Len(t, items, 1)
			assert.Equal(t, tt.wantStatus, items[0].Status)
			if tt.wantReason != "" {
				assert.Contains(t, items[0].Reason, tt.wantReason)
			}
			assert.NotEmpty(t, items[0].ID)
		})
	}
}

func TestQueue_PartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	mUp := new(mocks.MockUploader)

	// File #2 fails validation, #1 and #3 upload fine.
	mUp.On("UploadDocument", ctx, mock.MatchedBy(func(f uploader.File) bool { return f.Name == "one.pdf" })).
		Return(&model.Document{ID: "1"}, nil).Once()
	mUp.On("UploadDocument", ctx, mock.MatchedBy(func(f uploader.File) bool { return f.Name == "three.txt" })).
		Return(&model.Document{ID: "3"}, nil).Once()

	var refreshes int32
	q := uploader.New(mUp, testConfig(), uploader.WithOnComplete(func(out uploader.Outcome) {
		atomic.AddInt32(&refreshes, 1)
		assert.Equal(t, uploader.Outcome{Uploaded: 2, Failed: 0, Rejected: 1}, out)
	}))

	q.Add(
		testFile("one.pdf", 100),
		testFile("two.pdf", 9999), // oversized
		testFile("three.txt", 50),
	)

	out, err := q.Run(ctx)

	assert.NoError(t, err)
	assert.Equal(t, uploader.Outcome{Uploaded: 2, Failed: 0, Rejected: 1}, out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	mUp.AssertExpectations(t)
}

func TestQueue_UploadErrorDoesNotStopSiblings(t *testing.T) {
	ctx := context.Background()
	mUp := new(mocks.MockUploader)

	mUp.On("UploadDocument", ctx, mock.MatchedBy(func(f uploader.File) bool { return f.Name == "a.pdf" })).
		Return(nil, errors.New("connection reset")).Once()
	mUp.On("UploadDocument", ctx, mock.MatchedBy(func(f uploader.File) bool { return f.Name == "b.pdf" })).
		Return(&model.Document{ID: "b"}, nil).Once()
	mUp.On("UploadDocument", ctx, mock.MatchedBy(func(f uploader.File) bool { return f.Name == "c.txt" })).
		Return(&model.Document{ID: "c"}, nil).Once()

	q := uploader.New(mUp, testConfig())
	q.Add(testFile("a.pdf", 10), testFile("b.pdf", 10), testFile("c.txt", 10))

	out, err := q.Run(ctx)

	assert.NoError(t, err)
	assert.Equal(t, uploader.Outcome{Uploaded: 2, Failed: 1}, out)
	mUp.AssertExpectations(t)
}

func TestQueue_BatchClearedAfterRun(t *testing.T) {
	ctx := context.Background()
	mUp := new(mocks.MockUploader)
	mUp.On("UploadDocument", ctx, mock.Anything).Return(&model.Document{ID: "1"}, nil).Once()

	q := uploader.New(mUp, testConfig())
	q.Add(testFile("a.pdf", 10))

	_, err := q.Run(ctx)
	assert.NoError(t, err)
	assert.Empty(t, q.Items())

	// A second run has nothing to do and uploads nothing again.
	out, err := q.Run(ctx)
	assert.NoError(t, err)
	assert.Equal(t, uploader.Outcome{}, out)
	mUp.AssertExpectations(t)
}

func TestQueue_BoundedConcurrencyKeepsIsolation(t *testing.T) {
	ctx := context.Background()
	mUp := new(mocks.MockUploader)

	mUp.On("UploadDocument", ctx, mock.MatchedBy(func(f uploader.File) bool { return f.Name == "fail.pdf" })).
		Return(nil, errors.New("boom"))
	mUp.On("UploadDocument", ctx, mock.MatchedBy(func(f uploader.File) bool { return f.Name != "fail.pdf" })).
		Return(&model.Document{ID: "ok"}, nil)

	q := uploader.New(mUp, testConfig(), uploader.WithConcurrency(3))
	q.Add(
		testFile("a.pdf", 10),
		testFile("fail.pdf", 10),
		testFile("b.pdf", 10),
		testFile("c.txt", 10),
		testFile("d.txt", 10),
	)

	out, err := q.Run(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 4, out.Uploaded)
	assert.Equal(t, 1, out.Failed)
}

func TestQueue_EmptyAllowListAcceptsEverything(t *testing.T) {
	q := uploader.New(new(mocks.MockUploader), config.UploadConfig{MaxFileSize: 100})
	items := q.Add(testFile("anything.bin", 10))
	assert.Equal(t, uploader.StatusPending, items[0].Status)
}
