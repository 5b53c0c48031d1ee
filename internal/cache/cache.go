package cache

import (
	"context"
	"time"

	"github.com/zidnyyasrah/point-of-sale/internal/domain"
)

// ReceiptCache holds readable receipts by transaction id. Receipts never change
// after commit, so entries only expire.
type ReceiptCache interface {
	Get(ctx context.Context, transactionID int64) (*domain.Receipt, bool, error)
	Set(ctx context.Context, receipt *domain.Receipt, ttl time.Duration) error
}

type NoopReceiptCache struct{}

func (NoopReceiptCache) Get(_ context.Context, _ int64) (*domain.Receipt, bool, error) {
	return nil, false, nil
}

func (NoopReceiptCache) Set(_ context.Context, _ *domain.Receipt, _ time.Duration) error {
	return nil
}
