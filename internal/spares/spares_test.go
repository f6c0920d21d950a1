package spares

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pump-selector/internal/model"
)

const rowsDataset = `[
  {"Pump Category": "Pump Category", "Model Name": "Model Name", "Casing": "Casing", "Impeller": "Impeller", "Mechanical Seal": "Mechanical Seal", "Adapter": "Adapter", "Non Return Valve": "Non Return Valve", "Unit Price": "Unit Price"},
  {"Pump Category": "Centrifugal Pump", "Model Name": "CX1", "Casing": "CAS-1", "Impeller": "IMP-1", "Mechanical Seal": "SEAL-1", "Adapter": "ADP-1", "Non Return Valve": "NRV-1", "Unit Price": 250},
  {"Pump Category": "centrifugal pump ", "Model Name": "CX2", "Casing": "CAS-2", "Impeller": "", "Mechanical Seal": "SEAL-2", "Adapter": "ADP-2", "Non Return Valve": "NRV-2", "Unit Price": "300 Rs"},
  {"Pump Category": "Deep Well Jet Pump", "Model Name": "DW1", "Casing": "CAS-9", "Impeller": "IMP-9", "Mechanical Seal": "SEAL-9", "Adapter": "ADP-9", "Non Return Valve": "NRV-9", "Unit Price": 0}
]`

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "Self Priming Mini-Monoblock", CategoryFor("Priming"))
	assert.Equal(t, "Dewatering Submersible Pump", CategoryFor("dewatering"))
	assert.Equal(t, "Custom", CategoryFor("Custom"))
	assert.Len(t, PumpTypes(), len(Categories))
}

func TestLoadDefaults(t *testing.T) {
	defaults, err := LoadDefaults()
	require.NoError(t, err)
	require.Len(t, defaults, 2)

	p := defaults["Priming"]
	require.NotNil(t, p)
	assert.Equal(t, "Self Priming Mini-Monoblock", p.Category)
	assert.Equal(t, model.SparesHeaders, p.Headers)
	assert.Len(t, p.Rows, 7)
	assert.Equal(t, []string{"JOY1 ULTRA", "MSPH6", "MSPK6", "MSPK4", "MSPK5", "MSPK7"}, p.Rows[5])
	assert.True(t, decimal.NewFromInt(500).Equal(p.Prices["MSPX1"]))
	assert.Equal(t, SourceDefault, p.Source)

	c := defaults["centrifugale"]
	require.NotNil(t, c)
	assert.True(t, decimal.NewFromInt(630).Equal(c.Prices["MCPH7"]))
}

func TestParseDefaults_Errors(t *testing.T) {
	_, err := parseDefaults([]byte("- title: x\n"))
	assert.Error(t, err)

	_, err = parseDefaults([]byte("- pump_type: x\n  prices:\n    A: abc\n"))
	assert.Error(t, err)

	_, err = parseDefaults([]byte("{not yaml"))
	assert.Error(t, err)
}

func TestLookup_Rows(t *testing.T) {
	tbl, err := Lookup([]byte(rowsDataset), "Centrifugal Pump")
	require.NoError(t, err)
	require.NotNil(t, tbl)

	assert.Equal(t, "Centrifugal Pump Spares", tbl.Title)
	assert.Equal(t, model.SparesHeaders, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"CX1", "CAS-1", "IMP-1", "SEAL-1", "ADP-1", "NRV-1"}, tbl.Rows[0])
	assert.Equal(t, []string{"CX2", "CAS-2", "", "SEAL-2", "ADP-2", "NRV-2"}, tbl.Rows[1])

	assert.True(t, decimal.NewFromInt(250).Equal(tbl.Prices["IMP-1"]))
	assert.True(t, decimal.NewFromInt(300).Equal(tbl.Prices["NRV-2"]))
	assert.NotContains(t, tbl.Prices, "")
}

func TestLookup_RowsZeroPriceSkipped(t *testing.T) {
	tbl, err := Lookup([]byte(rowsDataset), "deep well jet pump")
	require.NoError(t, err)
	require.NotNil(t, tbl)
	assert.Len(t, tbl.Rows, 1)
	assert.Empty(t, tbl.Prices)
}

func TestLookup_RowsNoCategory(t *testing.T) {
	tbl, err := Lookup([]byte(rowsDataset), "Shallow Well Jet Pump")
	require.NoError(t, err)
	assert.Nil(t, tbl)

	tbl, err = Lookup([]byte(`[{"Model": "A", "Casing": "B"}]`), "Centrifugal Pump")
	require.NoError(t, err)
	assert.Nil(t, tbl)
}

func TestLookup_Object(t *testing.T) {
	data := []byte(`{
	  "Centrifugal Pump": {
	    "title": "Centrifugal Spares",
	    "table": {"headers": ["a","b"], "rows": [["C9", "X1", "X2", "X3", "X4", "X5"]]},
	    "prices": {"X1": 120.5, "X2": "80"}
	  }
	}`)
	tbl, err := Lookup(data, "centrifugal pump")
	require.NoError(t, err)
	require.NotNil(t, tbl)
	assert.Equal(t, "Centrifugal Spares", tbl.Title)
	assert.Equal(t, model.SparesHeaders, tbl.Headers)
	assert.Equal(t, [][]string{{"C9", "X1", "X2", "X3", "X4", "X5"}}, tbl.Rows)
	assert.True(t, decimal.RequireFromString("120.5").Equal(tbl.Prices["X1"]))
	assert.True(t, decimal.NewFromInt(80).Equal(tbl.Prices["X2"]))

	tbl, err = Lookup(data, "Deep Well Jet Pump")
	require.NoError(t, err)
	assert.Nil(t, tbl)
}

func TestLookup_Malformed(t *testing.T) {
	tbl, err := Lookup(nil, "x")
	assert.NoError(t, err)
	assert.Nil(t, tbl)

	_, err = Lookup([]byte(`"text"`), "x")
	assert.Error(t, err)

	_, err = Lookup([]byte(`[1, 2]`), "x")
	assert.Error(t, err)

	_, err = Lookup([]byte(`{"x": [1]}`), "x")
	assert.Error(t, err)
}

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService("")
	require.NoError(t, err)
	return s
}

func TestService_TableFallsBackToDefaults(t *testing.T) {
	s := newService(t)

	tbl, err := s.Table("Priming")
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, tbl.Source)

	// Callers may mutate the returned table.
	tbl.Rows[0][0] = "MUTATED"
	again, err := s.Table("Priming")
	require.NoError(t, err)
	assert.Equal(t, "S1", again.Rows[0][0])

	_, err = s.Table("opwell")
	assert.True(t, eris.Is(err, ErrUnknownPumpType))
}

func TestService_TableFromDataset(t *testing.T) {
	s := newService(t)
	s.Use(&model.DatasetFile{ID: "spares-1", Data: []byte(rowsDataset)})
	require.NotNil(t, s.Active())

	tbl, err := s.Table("centrifugale")
	require.NoError(t, err)
	assert.Equal(t, "spares-1", tbl.Source)
	assert.Len(t, tbl.Rows, 2)

	// Category missing from the dataset uses the defaults.
	tbl, err = s.Table("Priming")
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, tbl.Source)

	s.Use(&model.DatasetFile{ID: "bad", Data: []byte(`"nope"`)})
	tbl, err = s.Table("centrifugale")
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, tbl.Source)

	s.Use(nil)
	assert.Nil(t, s.Active())
}

func TestService_Quote(t *testing.T) {
	s := newService(t)

	o, err := s.Quote(OrderRequest{
		PumpType:     "Priming",
		CustomerName: "Asha",
		Lines: []OrderLineRequest{
			{Model: "S1", PartCode: "MSPX1", Quantity: 2},
			{Model: "SAGAR2", PartCode: "MSPS7", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, model.OrderPending, o.Status)
	assert.Equal(t, DefaultCurrency, o.Currency)
	assert.Equal(t, "Self Priming Mini-Monoblock", o.Category)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "Casing", o.Lines[0].Part)
	assert.True(t, decimal.NewFromInt(1000).Equal(o.Lines[0].LineTotal))
	assert.Equal(t, "NRV", o.Lines[1].Part)
	assert.True(t, decimal.NewFromInt(1400).Equal(o.Total))
}

func TestService_QuoteUnpricedPart(t *testing.T) {
	s := newService(t)
	s.Use(&model.DatasetFile{ID: "spares-1", Data: []byte(rowsDataset)})

	o, err := s.Quote(OrderRequest{
		PumpType:     "deepwell",
		CustomerName: "Ravi",
		Lines:        []OrderLineRequest{{Model: "DW1", PartCode: "CAS-9", Quantity: 3}},
	})
	require.NoError(t, err)
	assert.True(t, o.Total.IsZero())
}

func TestService_QuoteErrors(t *testing.T) {
	s := newService(t)

	_, err := s.Quote(OrderRequest{PumpType: "Priming", CustomerName: "A"})
	assert.True(t, eris.Is(err, ErrInvalidOrder))

	_, err = s.Quote(OrderRequest{
		PumpType:     "Priming",
		CustomerName: "A",
		Lines:        []OrderLineRequest{{Model: "S1", PartCode: "MSPX1", Quantity: 0}},
	})
	assert.True(t, eris.Is(err, ErrInvalidOrder))

	_, err = s.Quote(OrderRequest{
		PumpType:     "Priming",
		CustomerName: "A",
		SelectionID:  "not-a-uuid",
		Lines:        []OrderLineRequest{{Model: "S1", PartCode: "MSPX1", Quantity: 1}},
	})
	assert.True(t, eris.Is(err, ErrInvalidOrder))

	_, err = s.Quote(OrderRequest{
		PumpType:     "Priming",
		CustomerName: "A",
		Lines:        []OrderLineRequest{{Model: "S1", PartCode: "MCPX1", Quantity: 1}},
	})
	assert.True(t, eris.Is(err, ErrUnknownPart))

	_, err = s.Quote(OrderRequest{
		PumpType:     "opwell",
		CustomerName: "A",
		Lines:        []OrderLineRequest{{Model: "S1", PartCode: "MSPX1", Quantity: 1}},
	})
	assert.True(t, eris.Is(err, ErrUnknownPumpType))
}
