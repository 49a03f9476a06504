// v0
// internal/plant/types.go

// Package plant implements the plant-state engine: mood scoring, the
// experience/level progression, care recommendations and the slot-addressed
// snapshot protocol used to persist progression across power cycles.
package plant

const (
	// DefaultAwardPeriod is the number of measurement cycles between two XP awards.
	DefaultAwardPeriod = 24
	// DefaultMaxPlants bounds the slot domain of the persistence store.
	DefaultMaxPlants = 5
	// BaseXP is the award granted for a full period at 100% average mood.
	BaseXP = 3
	// MaxNameLen is the number of name bytes kept in a persisted snapshot.
	MaxNameLen = 16
)

// Channel identifies one of the four sensed quantities. The declaration order
// is the tie-break priority used by Recommend.
type Channel int

const (
	ChannelTemperature Channel = iota
	ChannelHumidity
	ChannelMoisture
	ChannelLight
)

// Channels lists every channel in priority order.
var Channels = [...]Channel{ChannelTemperature, ChannelHumidity, ChannelMoisture, ChannelLight}

func (c Channel) String() string {
	switch c {
	case ChannelTemperature:
		return "temperature"
	case ChannelHumidity:
		return "humidity"
	case ChannelMoisture:
		return "moisture"
	case ChannelLight:
		return "light"
	default:
		return "unknown"
	}
}

// Tolerance is a target value and the half-width of the acceptable band around it.
type Tolerance struct {
	Target uint8 `json:"target" yaml:"target"`
	Range  uint8 `json:"range" yaml:"range"`
}

// Profile holds the calibration of a plant species.
type Profile struct {
	Name        string    `json:"name" yaml:"name"`
	Temperature Tolerance `json:"temperature" yaml:"temperature"`
	Humidity    Tolerance `json:"humidity" yaml:"humidity"`
	Moisture    Tolerance `json:"moisture" yaml:"moisture"`
	Light       Tolerance `json:"light" yaml:"light"`
}

// Tolerance returns the configuration of a single channel.
func (p Profile) Tolerance(c Channel) Tolerance {
	switch c {
	case ChannelTemperature:
		return p.Temperature
	case ChannelHumidity:
		return p.Humidity
	case ChannelMoisture:
		return p.Moisture
	default:
		return p.Light
	}
}

// Reading is one sample per channel on the calibrated 0-255 scale.
type Reading struct {
	Temperature    uint8 `json:"temperature"`
	Humidity       uint8 `json:"humidity"`
	Moisture       uint8 `json:"moisture"`
	LightIntensity uint8 `json:"lightIntensity"`
}

// Value returns the sample of a single channel.
func (r Reading) Value(c Channel) uint8 {
	switch c {
	case ChannelTemperature:
		return r.Temperature
	case ChannelHumidity:
		return r.Humidity
	case ChannelMoisture:
		return r.Moisture
	default:
		return r.LightIntensity
	}
}

// State is the per-cycle output of the engine. It is never persisted.
type State struct {
	PlantID        uint8          `json:"plantId"`
	Mood           uint8          `json:"mood"`
	XP             uint16         `json:"xp"`
	Level          uint16         `json:"level"`
	Recommendation Recommendation `json:"recommendation"`
	Reading        Reading        `json:"reading"`
}

// Snapshot is the durable projection of a plant's progression.
type Snapshot struct {
	PlantID             uint8   `json:"plantId"`
	Profile             Profile `json:"profile"`
	XP                  uint16  `json:"xp"`
	Level               uint16  `json:"level"`
	UnlockedItems       uint16  `json:"unlockedItems"`
	UnlockedBackgrounds uint16  `json:"unlockedBackgrounds"`
	UnlockedAvatars     uint16  `json:"unlockedAvatars"`
}
