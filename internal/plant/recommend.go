// v0
// internal/plant/recommend.go
package plant

// HappyThreshold is the mood at or above which no care hint is given.
const HappyThreshold = 90

var directions = [...]struct{ above, below Recommendation }{
	ChannelTemperature: {TooHot, TooCold},
	ChannelHumidity:    {TooHumid, TooDry},
	ChannelMoisture:    {TooMoist, TooArid},
	ChannelLight:       {TooSunny, TooDark},
}

// Recommend picks the channel that deviates most from its target and maps
// the sign of the deviation to a directional hint. Ties go to the channel
// that comes first in Channels.
func Recommend(r Reading, p Profile, mood uint8) Recommendation {
	if mood >= HappyThreshold {
		return Happy
	}
	worst, worstDev := ChannelTemperature, 0
	for i, c := range Channels {
		dev := int(r.Value(c)) - int(p.Tolerance(c).Target)
		if i == 0 || abs(dev) > abs(worstDev) {
			worst, worstDev = c, dev
		}
	}
	if worstDev >= 0 {
		return directions[worst].above
	}
	return directions[worst].below
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
