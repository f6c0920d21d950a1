package spares

import (
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/pump-selector/internal/model"
)

// Sentinel errors.
var (
	ErrUnknownPumpType = eris.New("spares: no spares table for pump type")
	ErrUnknownPart     = eris.New("spares: part not in spares table")
	ErrInvalidOrder    = eris.New("spares: invalid order")
)

// DefaultCurrency is used for order totals when none is configured.
const DefaultCurrency = "INR"

// OrderLineRequest is one requested part.
type OrderLineRequest struct {
	Model    string `json:"model" validate:"required"`
	PartCode string `json:"part_code" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1,max=1000"`
}

// OrderRequest is a spares order as submitted by a customer.
type OrderRequest struct {
	PumpType      string             `json:"pump_type" validate:"required"`
	SelectionID   string             `json:"selection_id" validate:"omitempty,uuid"`
	CustomerName  string             `json:"customer_name" validate:"required,max=200"`
	CustomerPhone string             `json:"customer_phone" validate:"omitempty,max=32"`
	Lines         []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// Service serves spares tables from the assigned spares dataset, falling
// back to the built-in defaults.
type Service struct {
	active   atomic.Pointer[model.DatasetFile]
	defaults map[string]*model.SparesTable
	currency string
	validate *validator.Validate
}

// NewService creates a Service. An empty currency uses DefaultCurrency.
func NewService(currency string) (*Service, error) {
	defaults, err := LoadDefaults()
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Service{
		defaults: defaults,
		currency: currency,
		validate: validator.New(),
	}, nil
}

// Use installs the spares dataset. A nil file clears it.
func (s *Service) Use(f *model.DatasetFile) {
	if !f.HasData() {
		s.active.Store(nil)
		return
	}
	s.active.Store(f)
}

// Active returns the installed spares dataset, if any.
func (s *Service) Active() *model.DatasetFile {
	return s.active.Load()
}

// Table returns the spares table for a pump type. The assigned dataset is
// consulted first; unreadable datasets are logged and skipped.
func (s *Service) Table(pumpType string) (*model.SparesTable, error) {
	category := CategoryFor(pumpType)

	if f := s.active.Load(); f != nil {
		t, err := Lookup(f.Data, category)
		switch {
		case err != nil:
			zap.L().Warn("spares: unreadable spares dataset",
				zap.String("file_id", f.ID),
				zap.Error(err),
			)
		case t != nil:
			t.Source = f.ID
			return t, nil
		default:
			zap.L().Debug("spares: category not in dataset",
				zap.String("file_id", f.ID),
				zap.String("category", category),
			)
		}
	}

	if t, ok := s.defaults[pumpType]; ok {
		return cloneTable(t), nil
	}
	return nil, eris.Wrapf(ErrUnknownPumpType, "%s", pumpType)
}

// Quote validates an order request and prices it against the pump type's
// spares table. Parts without a listed price are quoted at zero.
func (s *Service) Quote(req OrderRequest) (*model.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, eris.Wrapf(ErrInvalidOrder, "%v", err)
	}
	t, err := s.Table(req.PumpType)
	if err != nil {
		return nil, err
	}

	o := &model.Order{
		ID:            uuid.NewString(),
		SelectionID:   req.SelectionID,
		PumpType:      req.PumpType,
		Category:      t.Category,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Total:         decimal.Zero,
		Currency:      s.currency,
		Status:        model.OrderPending,
		CreatedAt:     time.Now().UTC(),
	}
	for _, l := range req.Lines {
		part, ok := t.FindPart(l.Model, l.PartCode)
		if !ok {
			return nil, eris.Wrapf(ErrUnknownPart, "%s %s", l.Model, l.PartCode)
		}
		unit, ok := t.Prices[l.PartCode]
		if !ok {
			unit = decimal.Zero
		}
		line := model.OrderLine{
			Model:     l.Model,
			Part:      part,
			PartCode:  l.PartCode,
			Quantity:  l.Quantity,
			UnitPrice: unit,
			LineTotal: unit.Mul(decimal.NewFromInt(int64(l.Quantity))),
		}
		o.Lines = append(o.Lines, line)
		o.Total = o.Total.Add(line.LineTotal)
	}
	return o, nil
}

func cloneTable(t *model.SparesTable) *model.SparesTable {
	out := *t
	out.Headers = append([]string(nil), t.Headers...)
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	out.Prices = make(map[string]decimal.Decimal, len(t.Prices))
	for k, v := range t.Prices {
		out.Prices[k] = v
	}
	return &out
}
