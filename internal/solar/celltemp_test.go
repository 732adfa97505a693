package solar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellTemperatureNOCT(t *testing.T) {
	// no irradiance: cell at ambient
	assert.InDelta(t, 12.0, CellTemperatureNOCT(0, 12, 3, 45, 0.2), 1e-9)

	// still air
	want := 20 + 800.0/800*(45-20)*(1-0.2/0.9)*9.5/5.7
	assert.InDelta(t, want, CellTemperatureNOCT(800, 20, 0, 45, 0.2), 1e-9)
}

func TestCellTemperatureNOCT_WindCools(t *testing.T) {
	calm := CellTemperatureNOCT(800, 20, 0, 45, 0.2)
	windy := CellTemperatureNOCT(800, 20, 8, 45, 0.2)
	assert.Less(t, windy, calm)
	assert.Greater(t, windy, 20.0)
}
