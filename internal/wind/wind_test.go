package wind

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		HubHeightM:   12,
		RoughnessZ0:  0.0002,
		CutIn:        3,
		RatedSpeed:   12,
		CutOut:       25,
		RatedPowerW:  600,
		SystemEff:    0.9,
		Availability: 0.95,
		Count:        1,
	}
}

func TestShearToHeight(t *testing.T) {
	// at reference height the speed is unchanged
	assert.InDelta(t, 5.0, ShearToHeight(5, 10, 0.03), 1e-6)

	want := 5 * math.Log((30+1e-6)/(0.03+1e-6)) / math.Log(10/(0.03+1e-6))
	assert.InDelta(t, want, ShearToHeight(5, 30, 0.03), 1e-9)
	assert.Greater(t, ShearToHeight(5, 30, 0.03), 5.0)

	// calm and negative readings are floored
	assert.InDelta(t, ShearToHeight(0.01, 12, 0.0002), ShearToHeight(-3, 12, 0.0002), 1e-12)
	assert.Greater(t, ShearToHeight(0, 12, 0.0002), 0.0)
}

func TestShearToHeight_ZeroRoughness(t *testing.T) {
	v := ShearToHeight(5, 12, 0)
	assert.False(t, math.IsNaN(v))
	assert.False(t, math.IsInf(v, 0))
	assert.Greater(t, v, 5.0)
}

func TestCurvePower(t *testing.T) {
	p := testParams()
	tests := []struct {
		speed float64
		want  float64
	}{
		{0, 0},
		{2.99, 0},
		{3, 0},
		{7.5, 600 * 0.125},
		{11.999, 600 * math.Pow(8.999/9, 3)},
		{12, 600},
		{20, 600},
		{25, 600},
		{25.01, 0},
		{-4, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, p.CurvePower(tt.speed), 1e-9, "speed %v", tt.speed)
	}
}

func TestPower_ScalesByLossesAndCount(t *testing.T) {
	p := testParams()
	p.HubHeightM = 10
	p.RoughnessZ0 = 0
	p.Count = 3

	out := Power([]float64{0, 15, 30}, p)
	require.Len(t, out, 3)
	assert.Zero(t, out[0])
	assert.InDelta(t, 600*0.9*0.95*3, out[1], 1e-3)
	assert.Zero(t, out[2], "above cut-out")
}

func TestPower_NonNegative(t *testing.T) {
	for _, v := range Power([]float64{-5, 0, 1, 4, 8, 13, 40}, testParams()) {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestApplyInterference(t *testing.T) {
	wind := []float64{100, 200, 300, 400}
	pv := []float64{0, 50, 50.1, 1000}

	ApplyInterference(wind, pv)

	assert.Equal(t, []float64{100, 200, 0, 0}, wind)
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, testParams().Validate())

	p := testParams()
	p.RatedSpeed = p.CutIn
	assert.Error(t, p.Validate())

	p = testParams()
	p.Availability = 1.5
	assert.Error(t, p.Validate())

	p = testParams()
	p.HubHeightM = 0
	assert.Error(t, p.Validate())
}
