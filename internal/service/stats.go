package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// RecentLimit bounds the recent-documents projection on the dashboard.
const RecentLimit = 5

// RecentDocument is one entry of the dashboard's recent projection.
type RecentDocument struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Type     string       `json:"type"`
	Category string       `json:"category"`
	Status   model.Status `json:"status"`
	Time     string       `json:"time"`
}

// DashboardStats summarizes the document collection for the dashboard view.
type DashboardStats struct {
	TotalDocuments    int              `json:"total_documents"`
	AnalysedDocuments int              `json:"analysed_documents"`
	HighRiskDocuments int              `json:"high_risk_documents"`
	PendingDocuments  int              `json:"pending_documents"`
	StorageBytes      int64            `json:"storage_bytes"`
	StorageUsed       string           `json:"storage_used"`
	RecentDocuments   []RecentDocument `json:"recent_documents"`
}

// StatsService computes dashboard summaries over the document collection.
type StatsService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

type statsService struct {
	repo repository.DocumentRepository
}

// NewStatsService constructs a StatsService backed by the given repository.
func NewStatsService(repo repository.DocumentRepository) StatsService {
	return &statsService{repo: repo}
}

// Stats summarizes the newest repository.MaxLimit documents. TotalDocuments
// is corrected from the authoritative listing total; the per-status counts
// and StorageBytes stay bounded to that newest slice when the collection is
// larger.
func (s *statsService) Stats(ctx context.Context) (*DashboardStats, error) {
	res, err := s.repo.List(ctx, repository.ListQuery{Page: 1, Limit: repository.MaxLimit})
	if err != nil {
		return nil, err
	}
	stats := Summarize(res.Items, time.Now().UTC())
	// Counts come from the authoritative total, not the fetched slice,
	// in case the collection exceeds one page.
	if res.Total > len(res.Items) {
		stats.TotalDocuments = res.Total
	}
	return &stats, nil
}

// Summarize is a pure projection of the document slice at the given instant.
// It holds no state of its own; callers supply the clock reading.
func Summarize(docs []model.Document, now time.Time) DashboardStats {
	stats := DashboardStats{
		RecentDocuments: []RecentDocument{},
	}

	for _, d := range docs {
		stats.TotalDocuments++
		stats.StorageBytes += d.Size
		switch d.Status {
		case model.StatusAnalysed:
			stats.AnalysedDocuments++
		case model.StatusHighRisk:
			stats.HighRiskDocuments++
		case model.StatusPending:
			stats.PendingDocuments++
		}
	}
	stats.StorageUsed = humanize.IBytes(uint64(stats.StorageBytes))

	// docs arrive newest-first from the repository; take the head.
	limit := RecentLimit
	if len(docs) < limit {
		limit = len(docs)
	}
	for _, d := range docs[:limit] {
		stats.RecentDocuments = append(stats.RecentDocuments, RecentDocument{
			ID:       d.ID,
			Title:    d.Title,
			Type:     d.Type,
			Category: d.Category,
			Status:   d.Status,
			Time:     RelativeTime(d.CreatedAt, now),
		})
	}

	return stats
}

// RelativeTime renders now-t as a coarse human label with bucket boundaries
// at 1 and 60 minutes.
func RelativeTime(t, now time.Time) string {
	mins := int(now.Sub(t).Minutes())
	if mins < 1 {
		return "Just now"
	}
	if mins < 60 {
		return fmt.Sprintf("%d mins ago", mins)
	}
	return fmt.Sprintf("%d hours ago", mins/60)
}
