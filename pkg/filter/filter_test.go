package filter

import (
	"testing"

	"github.com/Sternrassler/servicenow-client/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hardwarePage() *record.Page {
	return &record.Page{Result: []record.Record{
		{"child": "item1", "child.hardware_status": "In Stock"},
		{"child": "item2", "child.hardware_status": "Retired"},
		{"child": "item3", "child.hardware_status": "In Use"},
		{"child": "item4", "child.hardware_status": "In Use"},
	}}
}

func children(page *record.Page) []string {
	names := make([]string, 0, page.Len())
	for _, rec := range page.Result {
		names = append(names, rec.String(record.FieldChild))
	}
	return names
}

func TestHardwareStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		expected []string
	}{
		{
			name:     "in use only",
			statuses: []string{"In Use"},
			expected: []string{"item3", "item4"},
		},
		{
			name:     "default allow-set",
			statuses: nil,
			expected: []string{"item3", "item4"},
		},
		{
			name:     "multiple statuses keep order",
			statuses: []string{"In Use", "In Stock"},
			expected: []string{"item1", "item3", "item4"},
		},
		{
			name:     "case sensitive",
			statuses: []string{"in use"},
			expected: []string{},
		},
		{
			name:     "no match",
			statuses: []string{"Lost"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := hardwarePage()
			result := HardwareStatus(input, tt.statuses...)

			require.NotNil(t, result)
			require.NotNil(t, result.Result, "empty result must still be a list")
			assert.Equal(t, tt.expected, children(result))
			assert.Len(t, input.Result, 4, "input page must not be modified")
		})
	}
}

func TestHardwareStatus_NilPage(t *testing.T) {
	result := HardwareStatus(nil)

	require.NotNil(t, result)
	assert.NotNil(t, result.Result)
	assert.True(t, result.Empty())
}

func TestByHardwareStatus(t *testing.T) {
	statuses := []string{"Retired"}
	fn := ByHardwareStatus(statuses...)
	statuses[0] = "In Use"

	result := fn(hardwarePage())
	assert.Equal(t, []string{"item2"}, children(result))
}

func TestPhysicalServersInUse(t *testing.T) {
	input := &record.Page{Result: []record.Record{
		{"child": "keep", "child.hardware_status": "In Use", "child.virtual": "false"},
		{"child": "virtual", "child.hardware_status": "In Use", "child.virtual": "True"},
		{"child": "retired", "child.hardware_status": "Retired", "child.virtual": "false"},
		{"child": "shouting", "child.hardware_status": "IN USE", "child.virtual": "FALSE"},
		{"child": "missing-virtual", "child.hardware_status": "In Use"},
		{"child": "null-status", "child.hardware_status": nil, "child.virtual": "false"},
	}}

	result := PhysicalServersInUse(input)

	require.NotNil(t, result)
	assert.Equal(t, []string{"keep", "shouting"}, children(result))
	assert.Len(t, input.Result, 6, "input page must not be modified")
}

func TestPhysicalServersInUse_Empty(t *testing.T) {
	result := InUsePhysical(&record.Page{Result: []record.Record{
		{"child": "vm", "child.hardware_status": "In Use", "child.virtual": "true"},
	}})

	require.NotNil(t, result.Result)
	assert.Empty(t, result.Result)
}

func TestHardwareStatus_EmptyAllowSetUsesDefault(t *testing.T) {
	explicit := HardwareStatus(hardwarePage(), []string{}...)
	assert.Equal(t, []string{"item3", "item4"}, children(explicit))

	bound := ByHardwareStatus([]string{}...)(hardwarePage())
	assert.Equal(t, []string{"item3", "item4"}, children(bound))

	none := HardwareStatus(hardwarePage(), "no such status")
	assert.Empty(t, children(none))
}
