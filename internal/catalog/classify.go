package catalog

import (
	"github.com/sells-group/pump-selector/internal/model"
	"github.com/sells-group/pump-selector/internal/normalize"
)

// MinLabelledFields is the number of canonical fields a labelled dataset
// must bind, besides the model column, to count as a combination dataset.
// Legacy exports carry a "Model" label among their numeric columns.
const MinLabelledFields = 4

// Classify decides which matcher a dataset feeds. A dataset with no rows is
// empty. A dataset with a model column is a combination dataset; everything
// else is a legacy numeric catalog.
func Classify(d *Dataset) model.DatasetKind {
	if d.Len() == 0 {
		return model.DatasetEmpty
	}
	b := normalize.Resolve(d.Headers(), normalize.SelectionRules)
	if !b.Has(normalize.RoleModel) {
		return model.DatasetLegacy
	}
	if d.Labelled() && b.FieldCount() < MinLabelledFields {
		return model.DatasetLegacy
	}
	return model.DatasetCombination
}
