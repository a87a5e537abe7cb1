package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListQuery_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		q         ListQuery
		wantPage  int
		wantLimit int
	}{
		{"zero values get defaults", ListQuery{}, 1, DefaultLimit},
		{"negative page clamps to 1", ListQuery{Page: -3, Limit: 20}, 1, 20},
		{"limit above max clamps", ListQuery{Page: 2, Limit: 5000}, 2, MaxLimit},
		{"valid values untouched", ListQuery{Page: 4, Limit: 25}, 4, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.q.Normalize()
			assert.Equal(t, tt.wantPage, tt.q.Page)
			assert.Equal(t, tt.wantLimit, tt.q.Limit)
		})
	}
}

func TestListQuery_Offset(t *testing.T) {
	q := ListQuery{Page: 3, Limit: 10}
	assert.Equal(t, 20, q.Offset())
}

func TestNewPageResult(t *testing.T) {
	t.Run("rounds total pages up", func(t *testing.T) {
		res := NewPageResult([]int{1, 2, 3}, 23, 1, 10)
		assert.Equal(t, 3, res.TotalPages)
		assert.Equal(t, 23, res.Total)
	})

	t.Run("exact division", func(t *testing.T) {
		res := NewPageResult([]int{}, 20, 2, 10)
		assert.Equal(t, 2, res.TotalPages)
	})

	t.Run("nil items become empty slice", func(t *testing.T) {
		res := NewPageResult[int](nil, 0, 1, 10)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
		assert.Equal(t, 0, res.TotalPages)
	})
}
