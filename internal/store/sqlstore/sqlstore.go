package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zidnyyasrah/point-of-sale/internal/domain"
	"github.com/zidnyyasrah/point-of-sale/internal/store"
)

// Store implements store.Repository on database/sql for any Dialect.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Name() string {
	return s.dialect.Name()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, name, price_buy, price_sell, stock
		FROM items
		ORDER BY name ASC, id ASC
	`))
	if err != nil {
		return nil, s.storageError("list items", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 64)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.PriceBuy, &item.PriceSell, &item.Stock); err != nil {
			return nil, s.storageError("list items", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storageError("list items", err)
	}
	return items, nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	var item domain.Item
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, name, price_buy, price_sell, stock
		FROM items
		WHERE id = ?
	`), id).Scan(&item.ID, &item.Name, &item.PriceBuy, &item.PriceSell, &item.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, s.storageError("get item", err)
	}
	return &item, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	var created domain.Item
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO items (name, price_buy, price_sell, stock)
		VALUES (?, ?, ?, ?)
		RETURNING id, name, price_buy, price_sell, stock
	`), item.Name, item.PriceBuy, item.PriceSell, item.Stock).
		Scan(&created.ID, &created.Name, &created.PriceBuy, &created.PriceSell, &created.Stock)
	if err != nil {
		return nil, s.storageError("create item", err)
	}
	return &created, nil
}

func (s *Store) UpdateItem(ctx context.Context, id int64, patch domain.ItemPatch) (*domain.Item, error) {
	if patch.Empty() {
		return nil, store.ErrNoFields
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.PriceBuy != nil {
		sets = append(sets, "price_buy = ?")
		args = append(args, *patch.PriceBuy)
	}
	if patch.PriceSell != nil {
		sets = append(sets, "price_sell = ?")
		args = append(args, *patch.PriceSell)
	}
	if patch.Stock != nil {
		sets = append(sets, "stock = ?")
		args = append(args, *patch.Stock)
	}
	args = append(args, id)

	var item domain.Item
	err := s.db.QueryRowContext(ctx, s.q(`
		UPDATE items SET `+strings.Join(sets, ", ")+`
		WHERE id = ?
		RETURNING id, name, price_buy, price_sell, stock
	`), args...).Scan(&item.ID, &item.Name, &item.PriceBuy, &item.PriceSell, &item.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, s.storageError("update item", err)
	}
	return &item, nil
}

func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.q(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return s.storageError("delete item", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return s.storageError("delete item", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SeedItems inserts the given catalog only when the items table is empty.
func (s *Store) SeedItems(ctx context.Context, items []domain.Item) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, s.storageError("seed items", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM items`)).Scan(&count); err != nil {
		return 0, s.storageError("seed items", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO items (name, price_buy, price_sell, stock)
			VALUES (?, ?, ?, ?)
		`), item.Name, item.PriceBuy, item.PriceSell, item.Stock); err != nil {
			return 0, s.storageError("seed items", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, s.storageError("seed items", err)
	}
	return len(items), nil
}

func (s *Store) CommitTransaction(ctx context.Context, commit domain.Commit) (int64, error) {
	// Once started, a commit runs to COMMIT or ROLLBACK even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	tx, err := s.db.BeginTx(ctx, s.dialect.TxOptions())
	if err != nil {
		return 0, s.commitError(store.StepBegin, err)
	}
	defer func() { _ = tx.Rollback() }()

	var transactionID int64
	if err := tx.QueryRowContext(ctx, s.q(`
		INSERT INTO transactions (total)
		VALUES (?)
		RETURNING id
	`), commit.Total).Scan(&transactionID); err != nil {
		return 0, s.commitError(store.StepInsertTransaction, err)
	}

	snapshot := make([]domain.ReceiptItem, 0, len(commit.Lines))
	for _, line := range commit.Lines {
		if commit.AdjustStock {
			if err := s.adjustStock(ctx, tx, line); err != nil {
				return 0, s.commitError(store.StepAdjustStock, err)
			}
		}

		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO transaction_items (transaction_id, item_id, item_name, quantity, price_at_sale)
			VALUES (?, ?, ?, ?, ?)
		`), transactionID, line.ItemID, line.Name, line.Quantity, line.PriceSell); err != nil {
			return 0, s.commitError(store.StepInsertLineItem, fmt.Errorf("item %d: %w", line.ItemID, err))
		}

		snapshot = append(snapshot, domain.ReceiptItem{
			Name:      line.Name,
			Quantity:  line.Quantity,
			PriceSell: line.PriceSell,
		})
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return 0, s.commitError(store.StepEncodeReceipt, err)
	}

	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO receipts (transaction_id, total, items)
		VALUES (?, ?, ?)
	`), transactionID, commit.Total, string(payload)); err != nil {
		return 0, s.commitError(store.StepInsertReceipt, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, s.commitError(store.StepCommit, err)
	}

	log.Printf("[store] committed transaction id=%d lines=%d total=%s", transactionID, len(commit.Lines), formatAmount(commit.Total))
	return transactionID, nil
}

func (s *Store) adjustStock(ctx context.Context, tx *sql.Tx, line domain.CommitLine) error {
	result, err := tx.ExecContext(ctx, s.q(`
		UPDATE items SET stock = stock - ?
		WHERE id = ? AND stock >= ?
	`), line.Quantity, line.ItemID, line.Quantity)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var stock int
	err = tx.QueryRowContext(ctx, s.q(`SELECT stock FROM items WHERE id = ?`), line.ItemID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("item %d: %w", line.ItemID, store.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("item %d has %d, requested %d: %w", line.ItemID, stock, line.Quantity, store.ErrInsufficientStock)
}

func (s *Store) ListTransactions(ctx context.Context, from, to *time.Time) ([]domain.Transaction, error) {
	query := `SELECT id, total, timestamp FROM transactions`
	conds := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if from != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, s.dialect.TimeArg(*from))
	}
	if to != nil {
		conds = append(conds, "timestamp < ?")
		args = append(args, s.dialect.TimeArg(*to))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, s.storageError("list transactions", err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, 64)
	for rows.Next() {
		var (
			tx       domain.Transaction
			rawTotal any
		)
		if err := rows.Scan(&tx.ID, &rawTotal, &tx.Timestamp); err != nil {
			return nil, s.storageError("list transactions", err)
		}
		total, ok := CoerceAmount(rawTotal)
		if !ok {
			log.Printf("[store] WARN: transaction id=%d has non-numeric total %v, counted as 0", tx.ID, rawTotal)
		}
		tx.Total = total
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storageError("list transactions", err)
	}
	return transactions, nil
}

func (s *Store) GetReceiptByTransactionID(ctx context.Context, transactionID int64) (*domain.Receipt, error) {
	var (
		receipt  domain.Receipt
		rawTotal any
		rawItems string
	)
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, transaction_id, total, items, timestamp
		FROM receipts
		WHERE transaction_id = ?
	`), transactionID).Scan(&receipt.ID, &receipt.TransactionID, &rawTotal, &rawItems, &receipt.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, s.storageError("get receipt", err)
	}

	total, ok := CoerceAmount(rawTotal)
	if !ok {
		log.Printf("[store] WARN: receipt id=%d has non-numeric total %v", receipt.ID, rawTotal)
	}
	receipt.Total = total

	items, err := DecodeReceiptItems(rawItems)
	if err != nil {
		log.Printf("[store] WARN: receipt id=%d items unreadable: %v", receipt.ID, err)
		receipt.Items = []domain.ReceiptItem{}
		receipt.ItemsUnreadable = true
		receipt.ItemsError = err.Error()
		return &receipt, nil
	}
	receipt.Items = items
	return &receipt, nil
}

// DecodeReceiptItems parses the stored receipt snapshot.
func DecodeReceiptItems(raw string) ([]domain.ReceiptItem, error) {
	items := make([]domain.ReceiptItem, 0, 8)
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode receipt items: %w", err)
	}
	if items == nil {
		items = []domain.ReceiptItem{}
	}
	return items, nil
}

// CoerceAmount converts a scanned money column to float64. Values that are not
// numeric yield 0 and false.
func CoerceAmount(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	case []byte:
		return parseAmount(string(val))
	case string:
		return parseAmount(val)
	default:
		return 0, false
	}
}

func parseAmount(raw string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func (s *Store) commitError(step store.CommitStep, err error) error {
	cause := err
	switch s.dialect.Classify(err) {
	case KindUnique:
		cause = fmt.Errorf("%w: %v", store.ErrConflict, err)
	case KindCheck:
		cause = fmt.Errorf("%w: %v", store.ErrValidation, err)
	case KindForeignKey:
		cause = fmt.Errorf("%w: referenced item does not exist: %v", store.ErrNotFound, err)
	}
	log.Printf("[store] rollback transaction step=%s: %v", step, err)
	return &store.CommitError{Step: step, Err: cause}
}

func (s *Store) storageError(op string, err error) error {
	switch s.dialect.Classify(err) {
	case KindUnique:
		return fmt.Errorf("%s: %w", op, store.ErrConflict)
	case KindCheck:
		verr := &store.ValidationError{}
		verr.Add("", "value violates a storage constraint (prices and stock must be non-negative)")
		return verr
	}
	return &store.StorageError{Op: op, Err: err}
}
