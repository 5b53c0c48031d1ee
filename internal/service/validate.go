package service

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/zidnyyasrah/point-of-sale/internal/domain"
	"github.com/zidnyyasrah/point-of-sale/internal/store"
)

const maxCount = math.MaxInt32

// normalizeName trims and NFC-normalizes a display name so visually equal
// names are stored identically.
func normalizeName(raw string) string {
	return norm.NFC.String(strings.TrimSpace(raw))
}

func validateItemCreate(req domain.ItemCreateRequest) (domain.Item, error) {
	verr := &store.ValidationError{}
	item := domain.Item{
		Name:      checkName(verr, "name", req.Name, true),
		PriceBuy:  checkAmount(verr, "price_buy", req.PriceBuy, true),
		PriceSell: checkAmount(verr, "price_sell", req.PriceSell, true),
		Stock:     checkCount(verr, "stock", req.Stock, true, 0),
	}
	if err := verr.OrNil(); err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

func validateItemUpdate(req domain.ItemUpdateRequest) (domain.ItemPatch, error) {
	if req.Name == nil && req.PriceBuy == nil && req.PriceSell == nil && req.Stock == nil {
		return domain.ItemPatch{}, store.ErrNoFields
	}

	verr := &store.ValidationError{}
	var patch domain.ItemPatch
	if req.Name != nil {
		name := checkName(verr, "name", req.Name, true)
		patch.Name = &name
	}
	if req.PriceBuy != nil {
		v := checkAmount(verr, "price_buy", req.PriceBuy, true)
		patch.PriceBuy = &v
	}
	if req.PriceSell != nil {
		v := checkAmount(verr, "price_sell", req.PriceSell, true)
		patch.PriceSell = &v
	}
	if req.Stock != nil {
		v := checkCount(verr, "stock", req.Stock, true, 0)
		patch.Stock = &v
	}
	if err := verr.OrNil(); err != nil {
		return domain.ItemPatch{}, err
	}
	return patch, nil
}

func validateCommit(req domain.CommitRequest, adjustStock bool) (domain.Commit, error) {
	verr := &store.ValidationError{}
	commit := domain.Commit{
		Total:       checkAmount(verr, "total", req.Total, true),
		AdjustStock: adjustStock,
		Lines:       make([]domain.CommitLine, 0, len(req.Items)),
	}
	if req.AdjustStock != nil {
		commit.AdjustStock = *req.AdjustStock
	}
	if len(req.Items) == 0 {
		verr.Add("items", "must contain at least one entry")
	}

	seen := make(map[int64]int, len(req.Items))
	for i, entry := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		itemID, ok := checkItemRef(verr, field, entry)
		if ok {
			if first, dup := seen[itemID]; dup {
				verr.Addf(field+".item_id", "item %d already appears at items[%d]; combine the quantities into one entry", itemID, first)
			} else {
				seen[itemID] = i
			}
		}

		commit.Lines = append(commit.Lines, domain.CommitLine{
			ItemID:    itemID,
			Name:      checkName(verr, field+".name", entry.Name, true),
			Quantity:  checkCount(verr, field+".quantity", entry.Quantity, true, 1),
			PriceSell: checkAmount(verr, field+".price_sell", entry.PriceSell, true),
		})
	}

	if err := verr.OrNil(); err != nil {
		return domain.Commit{}, err
	}
	return commit, nil
}

func checkItemRef(verr *store.ValidationError, field string, entry domain.CartItem) (int64, bool) {
	var id int64
	switch {
	case entry.ItemID != nil && entry.ID != nil && *entry.ItemID != *entry.ID:
		verr.Add(field+".item_id", "conflicts with id")
		return 0, false
	case entry.ItemID != nil:
		id = *entry.ItemID
	case entry.ID != nil:
		id = *entry.ID
	default:
		verr.Add(field+".item_id", "is required")
		return 0, false
	}
	if id < 1 {
		verr.Add(field+".item_id", "must be a positive id")
		return 0, false
	}
	return id, true
}

func checkName(verr *store.ValidationError, field string, v *string, required bool) string {
	if v == nil {
		if required {
			verr.Add(field, "is required")
		}
		return ""
	}
	name := normalizeName(*v)
	if name == "" {
		verr.Add(field, "must not be empty")
	}
	return name
}

func checkAmount(verr *store.ValidationError, field string, v *float64, required bool) float64 {
	if v == nil {
		if required {
			verr.Add(field, "is required")
		}
		return 0
	}
	switch {
	case math.IsNaN(*v) || math.IsInf(*v, 0):
		verr.Add(field, "must be a finite number")
		return 0
	case *v < 0:
		verr.Add(field, "must not be negative")
		return 0
	}
	return *v
}

func checkCount(verr *store.ValidationError, field string, v *float64, required bool, min int) int {
	if v == nil {
		if required {
			verr.Add(field, "is required")
		}
		return 0
	}
	switch {
	case math.IsNaN(*v) || math.IsInf(*v, 0) || *v != math.Trunc(*v):
		verr.Add(field, "must be a whole number")
		return 0
	case *v < float64(min):
		verr.Addf(field, "must be at least %d", min)
		return 0
	case *v > maxCount:
		verr.Add(field, "is too large")
		return 0
	}
	return int(*v)
}
