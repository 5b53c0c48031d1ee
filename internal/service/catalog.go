package service

import "github.com/zidnyyasrah/point-of-sale/internal/domain"

var demoCatalog = []domain.Item{
	{Name: "Mie Goreng", PriceBuy: 5000, PriceSell: 10000, Stock: 100},
	{Name: "Nasi Goreng", PriceBuy: 10000, PriceSell: 12000, Stock: 50},
	{Name: "Teh", PriceBuy: 1000, PriceSell: 2000, Stock: 150},
	{Name: "Ayam Goreng", PriceBuy: 8000, PriceSell: 15000, Stock: 56},
	{Name: "Air Mineral", PriceBuy: 10000, PriceSell: 15000, Stock: 30},
}

// DemoCatalog returns a copy of the starter catalog.
func DemoCatalog() []domain.Item {
	items := make([]domain.Item, len(demoCatalog))
	copy(items, demoCatalog)
	return items
}
