package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zidnyyasrah/point-of-sale/internal/domain"
	"github.com/zidnyyasrah/point-of-sale/internal/store"
)

type mockDialect struct{}

func (mockDialect) Name() string { return "mock" }
func (mockDialect) Rebind(query string) string { return RebindDollar(query) }
func (mockDialect) TimeArg(t time.Time) any { return t.UTC() }
func (mockDialect) Classify(error) ErrorKind { return KindOther }
func (mockDialect) TxOptions() *sql.TxOptions { return nil }

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, mockDialect{}), mock
}

func kopiRotiCommit() domain.Commit {
	return domain.Commit{
		Total: 21000,
		Lines: []domain.CommitLine{
			{ItemID: 1, Name: "Kopi", Quantity: 2, PriceSell: 5000},
			{ItemID: 2, Name: "Roti", Quantity: 1, PriceSell: 11000},
		},
	}
}

const kopiRotiSnapshot = `[{"name":"Kopi","quantity":2,"price_sell":5000},{"name":"Roti","quantity":1,"price_sell":11000}]`

func TestCommitTransactionRecordsAllRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions (total)`)).
		WithArgs(21000.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transaction_items`)).
		WithArgs(int64(7), int64(1), "Kopi", 2, 5000.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transaction_items`)).
		WithArgs(int64(7), int64(2), "Roti", 1, 11000.0).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO receipts (transaction_id, total, items)`)).
		WithArgs(int64(7), 21000.0, kopiRotiSnapshot).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := s.CommitTransaction(context.Background(), kopiRotiCommit())
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitTransactionRollsBackAtFailingStep(t *testing.T) {
	diskErr := errors.New("disk I/O error")

	cases := []struct {
		name   string
		step   store.CommitStep
		expect func(mock sqlmock.Sqlmock)
	}{
		{
			name: "transaction row",
			step: store.StepInsertTransaction,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).WillReturnError(diskErr)
				mock.ExpectRollback()
			},
		},
		{
			name: "second line item",
			step: store.StepInsertLineItem,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transaction_items`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transaction_items`)).WillReturnError(diskErr)
				mock.ExpectRollback()
			},
		},
		{
			name: "receipt row",
			step: store.StepInsertReceipt,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transaction_items`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transaction_items`)).
					WillReturnResult(sqlmock.NewResult(2, 1))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO receipts`)).WillReturnError(diskErr)
				mock.ExpectRollback()
			},
		},
		{
			name: "commit",
			step: store.StepCommit,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transaction_items`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transaction_items`)).
					WillReturnResult(sqlmock.NewResult(2, 1))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO receipts`)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit().WillReturnError(diskErr)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectBegin()
			tc.expect(mock)

			id, err := s.CommitTransaction(context.Background(), kopiRotiCommit())
			require.Error(t, err)
			assert.Zero(t, id)
			assert.ErrorIs(t, err, store.ErrCommitFailed)
			assert.ErrorIs(t, err, diskErr)

			var commitErr *store.CommitError
			require.ErrorAs(t, err, &commitErr)
			assert.Equal(t, tc.step, commitErr.Step)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCommitTransactionBeginFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := s.CommitTransaction(context.Background(), kopiRotiCommit())
	var commitErr *store.CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, store.StepBegin, commitErr.Step)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitTransactionIgnoresCallerCancellation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transaction_items`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO receipts`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	id, err := s.CommitTransaction(ctx, domain.Commit{
		Total: 2000,
		Lines: []domain.CommitLine{{ItemID: 3, Name: "Teh", Quantity: 1, PriceSell: 2000}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitTransactionAdjustStockShortfall(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET stock = stock - $1`)).
		WithArgs(5, int64(4), 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT stock FROM items WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(2))
	mock.ExpectRollback()

	_, err := s.CommitTransaction(context.Background(), domain.Commit{
		Total:       50000,
		AdjustStock: true,
		Lines:       []domain.CommitLine{{ItemID: 4, Name: "Ayam Goreng", Quantity: 5, PriceSell: 10000}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	var commitErr *store.CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, store.StepAdjustStock, commitErr.Step)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactionsBindsRangeAndCoercesTotals(t *testing.T) {
	s, mock := newMockStore(t)

	from := time.Date(2026, 10, 18, 17, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	newer := to.Add(-time.Hour)
	older := from.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, total, timestamp FROM transactions WHERE timestamp >= $1 AND timestamp < $2 ORDER BY timestamp DESC, id DESC`)).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id", "total", "timestamp"}).
			AddRow(int64(3), "5000.00", newer).
			AddRow(int64(2), "bad", newer).
			AddRow(int64(1), 10000.0, older))

	txs, err := s.ListTransactions(context.Background(), &from, &to)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, 5000.0, txs[0].Total)
	assert.Equal(t, 0.0, txs[1].Total)
	assert.Equal(t, 10000.0, txs[2].Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReceiptMarksUnreadableItems(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM receipts`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_id", "total", "items", "timestamp"}).
			AddRow(int64(1), int64(5), 21000.0, `[{"name":`, at))

	receipt, err := s.GetReceiptByTransactionID(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, receipt.ItemsUnreadable)
	assert.NotEmpty(t, receipt.ItemsError)
	assert.Empty(t, receipt.Items)
	assert.Equal(t, 21000.0, receipt.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReceiptNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM receipts`)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_id", "total", "items", "timestamp"}))

	_, err := s.GetReceiptByTransactionID(context.Background(), 404)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateItemWithoutFieldsSkipsStorage(t *testing.T) {
	s, mock := newMockStore(t)

	_, err := s.UpdateItem(context.Background(), 1, domain.ItemPatch{})
	assert.ErrorIs(t, err, store.ErrNoFields)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItemBuildsPartialSet(t *testing.T) {
	s, mock := newMockStore(t)
	stock := 40

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE items SET stock = $1`)).
		WithArgs(40, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price_buy", "price_sell", "stock"}).
			AddRow(int64(3), "Teh", 1000.0, 2000.0, 40))

	item, err := s.UpdateItem(context.Background(), 3, domain.ItemPatch{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 40, item.Stock)
	assert.Equal(t, "Teh", item.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItemReturnsStoredRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO items (name, price_buy, price_sell, stock)`)).
		WithArgs("Kopi", 1.239, 2.5, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price_buy", "price_sell", "stock"}).
			AddRow(int64(4), "Kopi", 1.24, 2.5, 10))

	item, err := s.CreateItem(context.Background(), domain.Item{Name: "Kopi", PriceBuy: 1.239, PriceSell: 2.5, Stock: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.Item{ID: 4, Name: "Kopi", PriceBuy: 1.24, PriceSell: 2.5, Stock: 10}, *item)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteItemNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM items WHERE id = $1`)).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteItem(context.Background(), 99), store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCoerceAmount(t *testing.T) {
	cases := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{10000.0, 10000, true},
		{int64(5000), 5000, true},
		{"12500.50", 12500.5, true},
		{[]byte(" 42 "), 42, true},
		{"bad", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := CoerceAmount(tc.in)
		assert.Equal(t, tc.want, got, "input %v", tc.in)
		assert.Equal(t, tc.wantOK, ok, "input %v", tc.in)
	}
}

func TestRebindDollar(t *testing.T) {
	assert.Equal(t, "SELECT 1", RebindDollar("SELECT 1"))
	assert.Equal(t, "a = $1 AND b = $2", RebindDollar("a = ? AND b = ?"))
}
