// v0
// internal/plant/profile.go
package plant

import "fmt"

// DefaultProfile returns the factory calibration shipped with the device.
func DefaultProfile() Profile {
	return Profile{
		Name:        "Plant",
		Temperature: Tolerance{Target: 22, Range: 5},
		Humidity:    Tolerance{Target: 60, Range: 30},
		Moisture:    Tolerance{Target: 50, Range: 50},
		Light:       Tolerance{Target: 50, Range: 50},
	}
}

// Validate rejects profiles that would divide by zero while scoring. The name
// is checked against the persisted field width.
func (p Profile) Validate() error {
	for _, c := range Channels {
		if p.Tolerance(c).Range == 0 {
			return fmt.Errorf("%s: %w", c, ErrArithmeticGuard)
		}
	}
	if len(p.Name) > MaxNameLen {
		return fmt.Errorf("name %q longer than %d bytes: %w", p.Name, MaxNameLen, ErrInvalidArgument)
	}
	return nil
}
