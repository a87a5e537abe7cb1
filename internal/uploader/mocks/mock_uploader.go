package mocks

import (
	"context"

	"docvault/internal/model"
	"docvault/internal/uploader"
	"github.com/stretchr/testify/mock"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) UploadDocument(ctx context.Context, file uploader.File) (*model.Document, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}
