package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/pump-selector/internal/model"
)

func TestBuildValueMappings(t *testing.T) {
	m := BuildValueMappings(sampleCombination())

	src := m[model.FieldSource]
	assert.Equal(t, "home sewage", src["home"])
	assert.Equal(t, "mall/shopping complex sewage", src["mall"])
	assert.Equal(t, "industry sewage", src["industry"])
	assert.Equal(t, "hotels sewage", src["hotel"])
	assert.NotContains(t, src, "hospital")

	del := m[model.FieldDelivery]
	assert.Equal(t, "ground floor", del["ground"])
	assert.Equal(t, "1st floor", del["floor1"])
	assert.Equal(t, "2nd floor", del["floor2"])
	assert.Equal(t, "3rd floor", del["floor3"])
	assert.NotContains(t, del, "floor4")
}

func TestBuildValueMappings_LongestSourceWins(t *testing.T) {
	ds := newDataset([]string{"Model", "Source"},
		[]string{"A", "Mall Sewage"},
		[]string{"B", "Mall/Shopping Complex Sewage"},
		[]string{"C", "Home sewage"},
		[]string{"D", "Home  sewage"},
	)
	src := BuildValueMappings(ds)[model.FieldSource]
	assert.Equal(t, "mall/shopping complex sewage", src["mall"])
	assert.Equal(t, "home  sewage", src["home"])
}

func TestBuildValueMappings_TieBreaksOnCompoundPlace(t *testing.T) {
	ds := newDataset([]string{"Model", "Source"},
		[]string{"A", "mall x sewage"},
		[]string{"B", "mall/x sewage"},
	)
	assert.Equal(t, "mall/x sewage", BuildValueMappings(ds)[model.FieldSource]["mall"])
}

func TestBuildValueMappings_Empty(t *testing.T) {
	assert.Empty(t, BuildValueMappings(nil))
	assert.Empty(t, BuildValueMappings(newDataset([]string{"Model"}, []string{"A"})))
}

func TestValueMappings_Lookup(t *testing.T) {
	m := ValueMappings{model.FieldSource: {"home": "home sewage"}}
	v, ok := m.Lookup(model.FieldSource, "home")
	assert.True(t, ok)
	assert.Equal(t, "home sewage", v)

	_, ok = m.Lookup(model.FieldDelivery, "floor1")
	assert.False(t, ok)
}

func TestBuildValueMappings_LastDeliveryWordingWins(t *testing.T) {
	ds := newDataset([]string{"Model", "Delivery"},
		[]string{"A", "Ground"},
		[]string{"B", "Ground Level"},
		[]string{"C", "First Floor"},
		[]string{"D", "1st floor (roof tank)"},
	)
	del := BuildValueMappings(ds)[model.FieldDelivery]
	assert.Equal(t, "ground level", del["ground"])
	assert.Equal(t, "1st floor (roof tank)", del["floor1"])
}
