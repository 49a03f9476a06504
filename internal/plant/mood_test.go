// v0
// internal/plant/mood_test.go
package plant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onTarget(p Profile) Reading {
	return Reading{
		Temperature:    p.Temperature.Target,
		Humidity:       p.Humidity.Target,
		Moisture:       p.Moisture.Target,
		LightIntensity: p.Light.Target,
	}
}

func TestScoreOnTargetIsFullMood(t *testing.T) {
	p := DefaultProfile()
	r := onTarget(p)
	mood := Score(r, p)
	assert.Equal(t, uint8(100), mood)
	assert.Equal(t, Happy, Recommend(r, p, mood))
}

func TestScoreSingleChannelOutOfBand(t *testing.T) {
	p := DefaultProfile()
	cases := []struct {
		name string
		edit func(*Reading)
		want Recommendation
	}{
		{name: "hot", edit: func(r *Reading) { r.Temperature = 30 }, want: TooHot},
		{name: "cold", edit: func(r *Reading) { r.Temperature = 10 }, want: TooCold},
		{name: "humid", edit: func(r *Reading) { r.Humidity = 95 }, want: TooHumid},
		{name: "dry", edit: func(r *Reading) { r.Humidity = 20 }, want: TooDry},
		{name: "moist", edit: func(r *Reading) { r.Moisture = 101 }, want: TooMoist},
		{name: "sunny", edit: func(r *Reading) { r.LightIntensity = 120 }, want: TooSunny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := onTarget(p)
			tc.edit(&r)
			mood := Score(r, p)
			assert.Equal(t, uint8(75), mood)
			assert.Equal(t, tc.want, Recommend(r, p, mood))
		})
	}
}

func TestScoreProportionalInsideBand(t *testing.T) {
	p := DefaultProfile()
	r := onTarget(p)

	r.Temperature = 24 // 2*25/5 = 10
	assert.Equal(t, uint8(90), Score(r, p))

	r.Temperature = 19 // 3*25/5 = 15
	assert.Equal(t, uint8(85), Score(r, p))

	r.Temperature = 22
	r.Humidity = 70 // 10*25/30 = 8
	assert.Equal(t, uint8(92), Score(r, p))

	r.Humidity = 90 // band edge, still inside: 30*25/30 = 25
	assert.Equal(t, uint8(75), Score(r, p))
}

func TestScoreFloorsAtZero(t *testing.T) {
	p := DefaultProfile()
	extremes := []Reading{
		{Temperature: 255, Humidity: 255, Moisture: 255, LightIntensity: 255},
		{Temperature: 0, Humidity: 0, Moisture: 101, LightIntensity: 101},
		{Temperature: 200, Humidity: 0, Moisture: 255, LightIntensity: 255},
	}
	for _, r := range extremes {
		mood := Score(r, p)
		assert.LessOrEqual(t, mood, uint8(100))
		assert.Equal(t, uint8(0), mood, "reading %+v", r)
	}
}

func TestScoreStaysInBoundsForEveryTemperature(t *testing.T) {
	p := DefaultProfile()
	r := onTarget(p)
	for v := 0; v <= 255; v++ {
		r.Temperature = uint8(v)
		mood := Score(r, p)
		require.GreaterOrEqual(t, mood, uint8(75))
		require.LessOrEqual(t, mood, uint8(100))
	}
}

func TestProfileValidateRejectsZeroRange(t *testing.T) {
	p := DefaultProfile()
	require.NoError(t, p.Validate())

	p.Light.Range = 0
	err := p.Validate()
	require.ErrorIs(t, err, ErrArithmeticGuard)
	assert.Contains(t, err.Error(), "light")

	p = DefaultProfile()
	p.Name = "a name that is far too long"
	require.ErrorIs(t, p.Validate(), ErrInvalidArgument)
}
