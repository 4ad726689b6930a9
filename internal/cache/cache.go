package cache

import (
	"context"
	"time"

	"github.com/samnang-john/pos-base-back/internal/domain"
)

type ReportCache interface {
	Get(ctx context.Context) (*domain.ReportOverview, bool, error)
	Set(ctx context.Context, value *domain.ReportOverview, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopReportCache struct{}

func NewNoop() NoopReportCache {
	return NoopReportCache{}
}

func (NoopReportCache) Get(_ context.Context) (*domain.ReportOverview, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ *domain.ReportOverview, _ time.Duration) error {
	return nil
}

func (NoopReportCache) Invalidate(_ context.Context) error {
	return nil
}
