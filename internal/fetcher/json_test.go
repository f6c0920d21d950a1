package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pumpRow struct {
	Model string  `json:"model"`
	HP    float64 `json:"hp"`
}

func drainJSON[T any](ch <-chan T, errCh <-chan error) ([]T, error) {
	var out []T
	for v := range ch {
		out = append(out, v)
	}
	var err error
	for e := range errCh {
		err = e
	}
	return out, err
}

func TestDecodeJSONArray(t *testing.T) {
	input := `[{"model":"SP-110","hp":1},{"model":"HT-400","hp":2.5},{"model":"OW-75","hp":0.75}]`

	rows, err := drainJSON[pumpRow](DecodeJSONArray[pumpRow](context.Background(), strings.NewReader(input)))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, pumpRow{Model: "SP-110", HP: 1}, rows[0])
	assert.InDelta(t, 2.5, rows[1].HP, 1e-9)
	assert.Equal(t, "OW-75", rows[2].Model)
}

func TestDecodeJSONArray_EmptyBodies(t *testing.T) {
	for _, input := range []string{"[]", ""} {
		rows, err := drainJSON[pumpRow](DecodeJSONArray[pumpRow](context.Background(), strings.NewReader(input)))
		require.NoError(t, err, "input %q", input)
		assert.Empty(t, rows)
	}
}

func TestDecodeJSONArray_NotAnArray(t *testing.T) {
	_, err := drainJSON[pumpRow](DecodeJSONArray[pumpRow](context.Background(), strings.NewReader(`{"model":"SP-110"}`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected '['")
}

func TestDecodeJSONArray_Cancelled(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := range 5000 {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"model":"SP-110","hp":1}`)
	}
	sb.WriteString("]")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := drainJSON[pumpRow](DecodeJSONArray[pumpRow](ctx, strings.NewReader(sb.String())))
	// The channel buffer can absorb early rows before cancellation is seen.
	if err != nil {
		assert.Contains(t, err.Error(), "context")
	}
}

func TestCollectJSONArray(t *testing.T) {
	got, err := CollectJSONArray[pumpRow](context.Background(), strings.NewReader(`[{"model":"SP-110"},{"model":"HT-400","hp":2}]`))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "HT-400", got[1].Model)
}

func TestCollectJSONArray_DecodeError(t *testing.T) {
	_, err := CollectJSONArray[pumpRow](context.Background(), strings.NewReader(`[{"hp":"one"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json: decode element")
}
