// Package spares looks up spare-part tables for pump categories and quotes
// spares orders against them.
package spares

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/pump-selector/internal/model"
)

// Categories maps questionnaire pump types to the category names used in
// spares datasets.
var Categories = map[string]string{
	"Priming":         "Self Priming Mini-Monoblock",
	"centrifugale":    "Centrifugal Pump",
	"SStage":          "Single Stage Pressure Pump",
	"MStage":          "Multi-stage Booster Pump",
	"opwell":          "Open Well submersible Pump",
	"3borwp":          "3-4 inch Borewell submersible Pump",
	"6borwp":          "5-6-7-8 inch Borewell submersible Pump",
	"shallow":         "Shallow Well Jet Pump",
	"deepwell":        "Deep Well Jet Pump",
	"a1sewage":        "Sewage submersible Pump",
	"circulatingpump": "In Line Circulating Pump",
	"dewatering":      "Dewatering Submersible Pump",
}

// CategoryFor returns the dataset category for a pump type. Unknown types
// are used as the category name directly.
func CategoryFor(pumpType string) string {
	if c, ok := Categories[pumpType]; ok {
		return c
	}
	return pumpType
}

// PumpTypes returns the known pump types in sorted order.
func PumpTypes() []string {
	out := make([]string, 0, len(Categories))
	for k := range Categories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

//go:embed defaults.yaml
var defaultsYAML []byte

type defaultTable struct {
	PumpType string            `yaml:"pump_type"`
	Title    string            `yaml:"title"`
	Rows     [][]string        `yaml:"rows"`
	Prices   map[string]string `yaml:"prices"`
}

// LoadDefaults parses the built-in spares tables, keyed by pump type.
func LoadDefaults() (map[string]*model.SparesTable, error) {
	return parseDefaults(defaultsYAML)
}

func parseDefaults(data []byte) (map[string]*model.SparesTable, error) {
	var raw []defaultTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "spares: parse defaults")
	}

	out := make(map[string]*model.SparesTable, len(raw))
	for _, d := range raw {
		if d.PumpType == "" {
			return nil, eris.New("spares: default table without pump_type")
		}
		t := &model.SparesTable{
			Category: CategoryFor(d.PumpType),
			Title:    d.Title,
			Headers:  append([]string(nil), model.SparesHeaders...),
			Rows:     d.Rows,
			Prices:   make(map[string]decimal.Decimal, len(d.Prices)),
			Source:   SourceDefault,
		}
		for code, p := range d.Prices {
			v, err := decimal.NewFromString(strings.TrimSpace(p))
			if err != nil {
				return nil, eris.Wrapf(err, "spares: price for %s", code)
			}
			t.Prices[code] = v
		}
		out[d.PumpType] = t
	}
	return out, nil
}
