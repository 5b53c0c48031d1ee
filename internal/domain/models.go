package domain

import "time"

type Item struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	PriceBuy  float64 `json:"price_buy"`
	PriceSell float64 `json:"price_sell"`
	Stock     int     `json:"stock"`
}

// ItemCreateRequest keeps numeric fields as pointers so a missing field can be
// told apart from an explicit zero. Stock is a float so fractional input is
// rejected instead of silently truncated.
type ItemCreateRequest struct {
	Name      *string  `json:"name"`
	PriceBuy  *float64 `json:"price_buy"`
	PriceSell *float64 `json:"price_sell"`
	Stock     *float64 `json:"stock"`
}

type ItemUpdateRequest struct {
	Name      *string  `json:"name,omitempty"`
	PriceBuy  *float64 `json:"price_buy,omitempty"`
	PriceSell *float64 `json:"price_sell,omitempty"`
	Stock     *float64 `json:"stock,omitempty"`
}

// ItemPatch is a validated partial update. Nil fields are left untouched.
type ItemPatch struct {
	Name      *string
	PriceBuy  *float64
	PriceSell *float64
	Stock     *int
}

func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.PriceBuy == nil && p.PriceSell == nil && p.Stock == nil
}

type Transaction struct {
	ID        int64     `json:"id"`
	Total     float64   `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// CartItem is one cart entry as submitted by a terminal. Either id or item_id
// may carry the item reference.
type CartItem struct {
	ID        *int64   `json:"id,omitempty"`
	ItemID    *int64   `json:"item_id,omitempty"`
	Name      *string  `json:"name"`
	Quantity  *float64 `json:"quantity"`
	PriceSell *float64 `json:"price_sell"`
}

type CommitRequest struct {
	Total       *float64   `json:"total"`
	Items       []CartItem `json:"items"`
	AdjustStock *bool      `json:"adjust_stock,omitempty"`
}

type CommitResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// CommitLine is a validated cart entry.
type CommitLine struct {
	ItemID    int64
	Name      string
	Quantity  int
	PriceSell float64
}

// Commit is the validated unit handed to storage: one transaction, its line
// items and the receipt snapshot, recorded together or not at all.
type Commit struct {
	Total       float64
	Lines       []CommitLine
	AdjustStock bool
}

type ReceiptItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	PriceSell float64 `json:"price_sell"`
}

type Receipt struct {
	ID              int64         `json:"id"`
	TransactionID   int64         `json:"transaction_id"`
	Total           float64       `json:"total"`
	Items           []ReceiptItem `json:"items"`
	ItemsUnreadable bool          `json:"items_unreadable,omitempty"`
	ItemsError      string        `json:"items_error,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

type TransactionSummary struct {
	DateFrom string  `json:"date_from,omitempty"`
	DateTo   string  `json:"date_to,omitempty"`
	Count    int     `json:"count"`
	SumTotal float64 `json:"sum_total"`
}

type ReceiptPrintPayload struct {
	TransactionID int64     `json:"transaction_id"`
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	EscposBase64  string    `json:"escpos_base64"`
	PreviewText   string    `json:"preview_text"`
	GeneratedAt   time.Time `json:"generated_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Repository string `json:"repository"`
}
