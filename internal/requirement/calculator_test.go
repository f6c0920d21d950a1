package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/pump-selector/internal/model"
)

func TestCompute_SimpleHorsepowerCase(t *testing.T) {
	// No water level, unknown delivery, default custom height (50 ft) and an
	// unknown usage (500 L/min).
	req := Compute(model.Answers{"usage": "unknown"}, true)

	assert.InDelta(t, 50, req.Head, 1e-9)
	assert.InDelta(t, 30000, req.Flow, 1e-9)
	assert.InDelta(t, 3, req.HP, 1e-9)
	assert.Equal(t, 220, req.Voltage)
}

func TestCompute_SimpleTables(t *testing.T) {
	tests := []struct {
		name     string
		answers  model.Answers
		wantHead float64
		wantFlow float64
	}{
		{
			name:     "borewell to second floor",
			answers:  model.Answers{"waterLevel": "50-100", "delivery": "floor2", "usage": "1000L-30min"},
			wantHead: 95,
			wantFlow: 556 * 60,
		},
		{
			name:     "ground delivery adds no height",
			answers:  model.Answers{"waterLevel": "0-5", "delivery": "ground", "usage": "500L-30min", "customHeight": "80"},
			wantHead: 2.5,
			wantFlow: 278 * 60,
		},
		{
			name:     "custom height",
			answers:  model.Answers{"waterLevel": "20-28", "delivery": "roof", "customHeight": "35", "usage": "6bigha-60min"},
			wantHead: 59,
			wantFlow: 6000 * 60,
		},
		{
			name:     "garbage custom height falls back",
			answers:  model.Answers{"customHeight": "tall"},
			wantHead: 50,
			wantFlow: 500 * 60,
		},
		{
			name:     "faucet count",
			answers:  model.Answers{"waterLevel": "5-20", "faucets": "4"},
			wantHead: 27.5,
			wantFlow: 80 * 60,
		},
		{
			name:     "faucet count carried in delivery",
			answers:  model.Answers{"delivery": "6"},
			wantHead: 15,
			wantFlow: 120 * 60,
		},
		{
			name:     "unknown faucet count",
			answers:  model.Answers{"faucets": "3"},
			wantHead: 15,
			wantFlow: 40 * 60,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Compute(tt.answers, true)
			assert.InDelta(t, tt.wantHead, req.Head, 1e-9)
			assert.InDelta(t, tt.wantFlow, req.Flow, 1e-9)
			assert.Equal(t, Horsepower(req.Head, req.Flow), req.HP)
		})
	}
}

func TestCompute_Advanced(t *testing.T) {
	req := Compute(model.Answers{"mode": "advanced", "head": "120", "flow": "45", "hp": "2", "phase": "380"}, false)
	assert.InDelta(t, 120, req.Head, 1e-9)
	assert.InDelta(t, 2700, req.Flow, 1e-9)
	assert.InDelta(t, 2, req.HP, 1e-9)
	assert.Equal(t, 380, req.Voltage)

	req = Compute(model.Answers{"head": "abc"}, false)
	assert.Zero(t, req.Head)
	assert.Zero(t, req.Flow)
	assert.Zero(t, req.HP)
	assert.Equal(t, DefaultVoltage, req.Voltage)
}

func TestCompute_Voltage(t *testing.T) {
	assert.Equal(t, 220, Compute(model.Answers{"phase": ""}, true).Voltage)
	assert.Equal(t, 220, Compute(model.Answers{"phase": "single"}, true).Voltage)
	assert.Equal(t, 440, Compute(model.Answers{"phase": "440V"}, true).Voltage)
}

func TestHorsepower(t *testing.T) {
	assert.InDelta(t, 3, Horsepower(50, 30000), 1e-9)
	assert.InDelta(t, MinHP, Horsepower(0, 0), 1e-9)
	assert.InDelta(t, 1, Horsepower(10, 1200), 1e-9)
}

func TestIsSimpleMode(t *testing.T) {
	assert.True(t, IsSimpleMode(model.Answers{}))
	assert.True(t, IsSimpleMode(model.Answers{"mode": "simple"}))
	assert.False(t, IsSimpleMode(model.Answers{"mode": "advanced"}))
}
