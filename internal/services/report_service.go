package services

import (
	"context"

	"honeydesk/internal/domain"
	"honeydesk/internal/repos"
)

// ReportService backs the admin dashboard.
type ReportService struct {
	Stats *repos.StatsRepo
	Inv   *repos.InventoryRepo
}

func NewReportService(stats *repos.StatsRepo, inv *repos.InventoryRepo) *ReportService {
	return &ReportService{Stats: stats, Inv: inv}
}

const lowStockThreshold = 5

func (s *ReportService) Overview(ctx context.Context) (domain.Stats, error) {
	return s.Stats.Overview(ctx)
}

// LowStock lists products below the restock threshold.
func (s *ReportService) LowStock(ctx context.Context) ([]repos.StockRow, error) {
	return s.Inv.Low(ctx, lowStockThreshold-1)
}

// Availability converts a stock count to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func Availability(stock int) string {
	switch {
	case stock >= lowStockThreshold:
		return "IN_STOCK"
	case stock > 0:
		return "LOW_STOCK"
	}
	return "OUT_OF_STOCK"
}
