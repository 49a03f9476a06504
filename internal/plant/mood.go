// v0
// internal/plant/mood.go
package plant

const (
	maxMood        = 100
	channelPenalty = 25
)

// Score rates how close a reading is to the profile, from 0 to 100. Each
// channel costs at most channelPenalty points: the full amount when the
// reading leaves the tolerance band, a proportional share inside it.
//
// The profile must have passed Validate; a zero range panics.
func Score(r Reading, p Profile) uint8 {
	mood := maxMood
	for _, c := range Channels {
		mood -= channelDebit(int(r.Value(c)), p.Tolerance(c))
	}
	if mood < 0 {
		mood = 0
	}
	return uint8(mood)
}

func channelDebit(value int, t Tolerance) int {
	target, rng := int(t.Target), int(t.Range)
	switch {
	case value < target-rng || value > target+rng:
		return channelPenalty
	case value < target:
		return (target - value) * channelPenalty / rng
	case value > target:
		return (value - target) * channelPenalty / rng
	default:
		return 0
	}
}
