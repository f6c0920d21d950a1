package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SparesHeaders is the fixed column layout of every spares table.
var SparesHeaders = []string{"Model", "Casing", "Impeller", "Mech. Sea", "Adaptor", "NRV"}

// SparesTable lists the spare part codes for the models of one pump category.
type SparesTable struct {
	Category string                     `json:"category"`
	Title    string                     `json:"title"`
	Headers  []string                   `json:"headers"`
	Rows     [][]string                 `json:"rows"`
	Prices   map[string]decimal.Decimal `json:"prices"`
	Source   string                     `json:"source"`
}

// PartAt returns the part header and code at the given row and column.
func (t *SparesTable) PartAt(row, col int) (string, string, bool) {
	if t == nil || row < 0 || row >= len(t.Rows) || col <= 0 || col >= len(t.Headers) {
		return "", "", false
	}
	if col >= len(t.Rows[row]) {
		return "", "", false
	}
	return t.Headers[col], t.Rows[row][col], true
}

// FindPart locates a part code for a model, returning the part header.
func (t *SparesTable) FindPart(modelName, code string) (string, bool) {
	if t == nil {
		return "", false
	}
	for _, r := range t.Rows {
		if len(r) == 0 || r[0] != modelName {
			continue
		}
		for j := 1; j < len(r) && j < len(t.Headers); j++ {
			if r[j] == code {
				return t.Headers[j], true
			}
		}
	}
	return "", false
}

// OrderStatus is the lifecycle state of a spares order.
type OrderStatus string

// Order statuses.
const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderLine is a single spare part on an order.
type OrderLine struct {
	Model     string          `json:"model"`
	Part      string          `json:"part"`
	PartCode  string          `json:"part_code"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Order is a spares order, optionally linked to a selection.
type Order struct {
	ID            string          `json:"id"`
	SelectionID   string          `json:"selection_id,omitempty"`
	PumpType      string          `json:"pump_type"`
	Category      string          `json:"category"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	Lines         []OrderLine     `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}
