package matcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/pump-selector/internal/catalog"
	"github.com/sells-group/pump-selector/internal/model"
)

// comboHeaders is a realistic combination sheet header with padded names.
var comboHeaders = []string{" MODEL ", "Purpose", "Location", "Source", "Water Level", "Delivery", "Custom Height", "Usage", "Phase", "Quality", "HP", "SKU"}

// fieldHeader maps each canonical field to its header in comboHeaders.
var fieldHeader = map[model.Field]string{
	model.FieldPurpose:      "Purpose",
	model.FieldLocation:     "Location",
	model.FieldSource:       "Source",
	model.FieldWaterLevel:   "Water Level",
	model.FieldDelivery:     "Delivery",
	model.FieldCustomHeight: "Custom Height",
	model.FieldUsage:        "Usage",
	model.FieldPhase:        "Phase",
	model.FieldQuality:      "Quality",
}

func newDataset(headers []string, rows ...[]string) *catalog.Dataset {
	ds := &catalog.Dataset{Columns: append([]string(nil), headers...)}
	for _, r := range rows {
		row := catalog.Row{}
		for i, v := range r {
			row.Cells = append(row.Cells, catalog.Cell{Key: headers[i], Value: v})
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

// answersFor rebuilds questionnaire answers from a combination row.
func answersFor(t *testing.T, ds *catalog.Dataset, i int) model.Answers {
	t.Helper()
	require.Less(t, i, ds.Len())
	a := model.Answers{}
	for f, h := range fieldHeader {
		a[string(f)] = ds.Rows[i].Value(h)
	}
	return a
}

func sampleCombination() *catalog.Dataset {
	return newDataset(comboHeaders,
		[]string{"SP-100", "Domestic", "House", "Home Sewage", "", "Ground Floor", "", "500L-30min", "220", "Clean", "1", "SKU-100"},
		[]string{"SP-110", "Domestic", "House", "Home Sewage", "", "1st Floor", "", "500L-30min", "220", "Clean", "1.5", ""},
		[]string{"SP-120", "Domestic", "House", "Home Sewage", "", "2nd Floor", "", "500L-30min", "220", "Clean", "2", "SKU-120"},
		[]string{"MB-200", "Commercial", "Mall", "Mall/Shopping Complex Sewage", "", "Ground Floor", "", "2000L-60min", "380", "Dirty", "3", "SKU-200"},
		[]string{"IN-300", "Commercial", "Factory", "Industry Sewage", "", "Ground Floor", "", "3000L-60min", "380", "Dirty", "5", "SKU-300"},
		[]string{"HT-400", "Commercial", "Hotel", "Hotels Sewage", "", "3rd Floor", "", "3000L-60min", "380", "Dirty", "5", "SKU-400"},
	)
}

func legacyPumps() []model.PumpRecord {
	return []model.PumpRecord{
		{Model: "SP-1", HP: 1, HeadMaxFt: 60, FlowMaxLPH: 2000, Voltage: "220/230V Single Phase"},
		{Model: "SP-3", HP: 3, HeadMaxFt: 120, FlowMaxLPH: 40000, Voltage: "220V"},
		{Model: "TP-5", HP: 5, HeadMaxFt: 200, FlowMaxLPH: 60000, Voltage: "380V"},
		{Model: "SP-2", HP: 2, HeadMaxFt: 40, FlowMaxLPH: 20000, Voltage: "220V"},
	}
}
