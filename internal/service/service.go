package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zidnyyasrah/point-of-sale/internal/cache"
	"github.com/zidnyyasrah/point-of-sale/internal/domain"
	"github.com/zidnyyasrah/point-of-sale/internal/printer"
	"github.com/zidnyyasrah/point-of-sale/internal/store"
)

type Options struct {
	ReceiptCache cache.ReceiptCache
	ReceiptTTL   time.Duration
	// Location decides which instants belong to a calendar date.
	Location    *time.Location
	StoreName   string
	AdjustStock bool
	Now         func() time.Time
}

type Service struct {
	repo        store.Repository
	receipts    cache.ReceiptCache
	receiptTTL  time.Duration
	location    *time.Location
	storeName   string
	adjustStock bool
	now         func() time.Time
}

func New(repo store.Repository, opts Options) *Service {
	if opts.ReceiptCache == nil {
		opts.ReceiptCache = cache.NoopReceiptCache{}
	}
	if opts.ReceiptTTL <= 0 {
		opts.ReceiptTTL = time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.StoreName == "" {
		opts.StoreName = "Point of Sale"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:        repo,
		receipts:    opts.ReceiptCache,
		receiptTTL:  opts.ReceiptTTL,
		location:    opts.Location,
		storeName:   opts.StoreName,
		adjustStock: opts.AdjustStock,
		now:         opts.Now,
	}
}

func (s *Service) Health(ctx context.Context) (domain.HealthResponse, error) {
	resp := domain.HealthResponse{Status: "ok", Repository: s.repo.Name()}
	if err := s.repo.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		return resp, &store.StorageError{Op: "ping", Err: err}
	}
	return resp, nil
}

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *Service) GetItem(ctx context.Context, id int64) (domain.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}
	return *item, nil
}

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (domain.Item, error) {
	item, err := validateItemCreate(req)
	if err != nil {
		return domain.Item{}, err
	}

	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return domain.Item{}, err
	}
	log.Printf("[service] item created id=%d name=%q stock=%d", created.ID, created.Name, created.Stock)
	return *created, nil
}

func (s *Service) UpdateItem(ctx context.Context, id int64, req domain.ItemUpdateRequest) (domain.Item, error) {
	patch, err := validateItemUpdate(req)
	if err != nil {
		return domain.Item{}, err
	}

	updated, err := s.repo.UpdateItem(ctx, id, patch)
	if err != nil {
		return domain.Item{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteItem(ctx context.Context, id int64) (domain.MessageResponse, error) {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return domain.MessageResponse{}, err
	}
	log.Printf("[service] item deleted id=%d", id)
	return domain.MessageResponse{Message: fmt.Sprintf("Item with ID %d deleted successfully", id)}, nil
}

// SeedCatalog loads the demo catalog into an empty item store.
func (s *Service) SeedCatalog(ctx context.Context) (int, error) {
	n, err := s.repo.SeedItems(ctx, DemoCatalog())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[service] seeded %d catalog items", n)
	}
	return n, nil
}

func (s *Service) CommitTransaction(ctx context.Context, req domain.CommitRequest) (domain.CommitResponse, error) {
	commit, err := validateCommit(req, s.adjustStock)
	if err != nil {
		return domain.CommitResponse{}, err
	}
	if lineSum := sumLines(commit.Lines); !lineSum.Equal(decimalOf(commit.Total)) {
		log.Printf("[service] WARN: commit total %s differs from line sum %s", decimalOf(commit.Total), lineSum)
	}

	id, err := s.repo.CommitTransaction(ctx, commit)
	if err != nil {
		return domain.CommitResponse{}, err
	}
	return domain.CommitResponse{ID: id, Message: "Transaction completed successfully"}, nil
}

func (s *Service) ListTransactions(ctx context.Context, dateFrom string, dateTo string) ([]domain.Transaction, error) {
	from, to, err := s.dateBounds(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, from, to)
}

func (s *Service) SummarizeTransactions(ctx context.Context, dateFrom string, dateTo string) (domain.TransactionSummary, error) {
	transactions, err := s.ListTransactions(ctx, dateFrom, dateTo)
	if err != nil {
		return domain.TransactionSummary{}, err
	}
	return domain.TransactionSummary{
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Count:    len(transactions),
		SumTotal: SumTotals(transactions),
	}, nil
}

func (s *Service) GetReceipt(ctx context.Context, transactionID int64) (domain.Receipt, error) {
	cached, ok, err := s.receipts.Get(ctx, transactionID)
	if err != nil {
		log.Printf("[service] WARN: receipt cache read failed transaction=%d: %v", transactionID, err)
	} else if ok {
		return *cached, nil
	}

	receipt, err := s.repo.GetReceiptByTransactionID(ctx, transactionID)
	if err != nil {
		return domain.Receipt{}, err
	}
	if !receipt.ItemsUnreadable {
		if err := s.receipts.Set(ctx, receipt, s.receiptTTL); err != nil {
			log.Printf("[service] WARN: receipt cache write failed transaction=%d: %v", transactionID, err)
		}
	}
	return *receipt, nil
}

func (s *Service) PrintReceipt(ctx context.Context, transactionID int64) (domain.ReceiptPrintPayload, error) {
	receipt, err := s.GetReceipt(ctx, transactionID)
	if err != nil {
		return domain.ReceiptPrintPayload{}, err
	}
	return printer.Render(s.storeName, receipt, s.location, s.now().UTC()), nil
}
