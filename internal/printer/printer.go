// Package printer renders committed receipts for ESC/POS thermal printers.
package printer

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zidnyyasrah/point-of-sale/internal/domain"
)

const (
	ruleHeavy = "========================"
	ruleLight = "------------------------"
)

var (
	escInit    = []byte{0x1b, 0x40}
	escCutFeed = []byte{0x1d, 0x56, 0x41, 0x10}
)

// Render builds the printable form of a receipt. Timestamps are shown in loc.
func Render(storeName string, receipt domain.Receipt, loc *time.Location, generatedAt time.Time) domain.ReceiptPrintPayload {
	if loc == nil {
		loc = time.UTC
	}
	lines := PreviewLines(storeName, receipt, loc)

	escpos := append([]byte{}, escInit...)
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, escCutFeed...)

	return domain.ReceiptPrintPayload{
		TransactionID: receipt.TransactionID,
		FileName:      fmt.Sprintf("receipt-%d.bin", receipt.TransactionID),
		ContentType:   "application/octet-stream",
		EscposBase64:  base64.StdEncoding.EncodeToString(escpos),
		PreviewText:   strings.Join(lines, "\n"),
		GeneratedAt:   generatedAt,
	}
}

func PreviewLines(storeName string, receipt domain.Receipt, loc *time.Location) []string {
	lines := []string{
		storeName,
		ruleHeavy,
		fmt.Sprintf("Transaksi: %d", receipt.TransactionID),
		"Tanggal  : " + receipt.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
		ruleLight,
	}
	if receipt.ItemsUnreadable {
		lines = append(lines, "(rincian item tidak terbaca)")
	}
	for _, item := range receipt.Items {
		lineTotal := decimal.NewFromFloat(item.PriceSell).Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines,
			fmt.Sprintf("%s x%d", item.Name, item.Quantity),
			"  "+lineTotal.String(),
		)
	}
	lines = append(lines,
		ruleLight,
		"Total    : "+decimal.NewFromFloat(receipt.Total).String(),
		ruleHeavy,
		"Terima kasih",
		"",
	)
	return lines
}
