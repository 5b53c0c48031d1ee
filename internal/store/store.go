package store

import (
	"context"
	"time"

	"github.com/zidnyyasrah/point-of-sale/internal/domain"
)

type Repository interface {
	Name() string
	Ping(ctx context.Context) error

	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, id int64, patch domain.ItemPatch) (*domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	SeedItems(ctx context.Context, items []domain.Item) (int, error)

	// CommitTransaction records the transaction row, every line item and the
	// receipt as one unit and returns the new transaction id.
	CommitTransaction(ctx context.Context, commit domain.Commit) (int64, error)

	// ListTransactions returns transactions newest first. A nil bound is open.
	// from is inclusive, to is exclusive.
	ListTransactions(ctx context.Context, from, to *time.Time) ([]domain.Transaction, error)
	GetReceiptByTransactionID(ctx context.Context, transactionID int64) (*domain.Receipt, error)
}
