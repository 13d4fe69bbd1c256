package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

func ptr(n int) *int { return &n }

func TestNewPaginationParams(t *testing.T) {
	tests := []struct {
		name        string
		page, limit *int
		want        domain.PaginationParams
	}{
		{"defaults", nil, nil, domain.PaginationParams{Page: 1, Limit: 20}},
		{"explicit", ptr(3), ptr(5), domain.PaginationParams{Page: 3, Limit: 5}},
		{"non-positive falls back", ptr(0), ptr(-1), domain.PaginationParams{Page: 1, Limit: 20}},
		{"limit capped", ptr(1), ptr(500), domain.PaginationParams{Page: 1, Limit: 100}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.NewPaginationParams(tc.page, tc.limit))
		})
	}
}

func TestPaginationParams_OffsetAndHasMore(t *testing.T) {
	p := domain.PaginationParams{Page: 2, Limit: 10}
	assert.Equal(t, 10, p.Offset())
	assert.True(t, p.HasMore(21))
	assert.False(t, p.HasMore(20))
	assert.False(t, domain.PaginationParams{Page: 1, Limit: 20}.HasMore(0))
}
