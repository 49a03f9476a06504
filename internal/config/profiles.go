// v0
// internal/config/profiles.go
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

// PlantEntry binds a profile to a persistence slot.
type PlantEntry struct {
	Slot          int `yaml:"slot"`
	plant.Profile `yaml:",inline"`
}

type profilesFile struct {
	Plants []PlantEntry `yaml:"plants"`
}

// LoadProfiles reads the plants from a YAML file:
//
//	plants:
//	  - slot: 0
//	    name: Basil
//	    temperature: {target: 22, range: 5}
//	    humidity: {target: 60, range: 30}
//	    moisture: {target: 50, range: 50}
//	    light: {target: 50, range: 50}
//
// An empty path, a missing file or an empty list yields one default plant in slot 0.
func LoadProfiles(path string, maxPlants int) ([]PlantEntry, error) {
	if strings.TrimSpace(path) == "" {
		return defaultPlants(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultPlants(), nil
		}
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return ParseProfiles(raw, maxPlants)
}

// ParseProfiles decodes and validates a profiles document.
func ParseProfiles(raw []byte, maxPlants int) ([]PlantEntry, error) {
	var doc profilesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if len(doc.Plants) == 0 {
		return defaultPlants(), nil
	}
	slots := plant.Slots{Max: maxPlants}
	seen := make(map[int]bool, len(doc.Plants))
	for i, p := range doc.Plants {
		if err := slots.Check(p.Slot); err != nil {
			return nil, fmt.Errorf("plant %d: %w", i, err)
		}
		if seen[p.Slot] {
			return nil, fmt.Errorf("plant %d: slot %d used twice: %w", i, p.Slot, plant.ErrInvalidArgument)
		}
		seen[p.Slot] = true
		if strings.TrimSpace(p.Name) == "" {
			doc.Plants[i].Name = plant.DefaultProfile().Name
		}
		if err := doc.Plants[i].Profile.Validate(); err != nil {
			return nil, fmt.Errorf("plant %d (%s): %w", i, p.Name, err)
		}
	}
	sort.Slice(doc.Plants, func(a, b int) bool { return doc.Plants[a].Slot < doc.Plants[b].Slot })
	return doc.Plants, nil
}

func defaultPlants() []PlantEntry {
	return []PlantEntry{{Slot: 0, Profile: plant.DefaultProfile()}}
}
