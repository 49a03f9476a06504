// v0
// internal/plant/codes.go
package plant

// Recommendation is the care hint derived from a reading. The numeric values
// are echoed verbatim into telemetry payloads and must not be renumbered.
type Recommendation uint8

const (
	Happy Recommendation = iota
	TooHot
	TooCold
	TooHumid
	TooDry
	TooSunny
	TooDark
	TooMoist
	TooArid
)

func (r Recommendation) String() string {
	switch r {
	case Happy:
		return "HAPPY"
	case TooHot:
		return "TOO_HOT"
	case TooCold:
		return "TOO_COLD"
	case TooHumid:
		return "TOO_HUMID"
	case TooDry:
		return "TOO_DRY"
	case TooSunny:
		return "TOO_SUNNY"
	case TooDark:
		return "TOO_DARK"
	case TooMoist:
		return "TOO_MOIST"
	case TooArid:
		return "TOO_ARID"
	default:
		return "UNKNOWN"
	}
}

// Unlockable is a bit in one of the three unlock masks of a Snapshot.
// Item bits live in UnlockedItems, avatar bits in UnlockedAvatars and
// background bits in UnlockedBackgrounds; the bit positions are shared with
// the display firmware.
type Unlockable uint16

const (
	UnlockSunglasses Unlockable = 1 << 0
	UnlockGlasses    Unlockable = 1 << 1
	UnlockBalloon    Unlockable = 1 << 2
	UnlockBeard      Unlockable = 1 << 3
	UnlockTie        Unlockable = 1 << 4
	UnlockTie2       Unlockable = 1 << 5
	UnlockCrown      Unlockable = 1 << 6
	UnlockHat        Unlockable = 1 << 7

	UnlockDefaultPlant Unlockable = 1 << 8
	UnlockCactus       Unlockable = 1 << 9
	UnlockVase         Unlockable = 1 << 10

	UnlockBackground1 Unlockable = 1 << 14
	UnlockBackground2 Unlockable = 1 << 15

	// UnlockNone is the legacy "nothing selected" marker used by the menu.
	UnlockNone Unlockable = 0x1FFF
	UnlockAll  Unlockable = 0xFFFF
)

// Unlocked reports whether every bit of item is set in mask.
func Unlocked(mask uint16, item Unlockable) bool {
	return mask&uint16(item) == uint16(item)
}

// Catalogues list the unlockables of each mask in menu order.
var (
	ItemCatalogue       = []Unlockable{UnlockSunglasses, UnlockGlasses, UnlockBalloon, UnlockBeard, UnlockTie, UnlockTie2, UnlockCrown, UnlockHat}
	AvatarCatalogue     = []Unlockable{UnlockDefaultPlant, UnlockCactus, UnlockVase}
	BackgroundCatalogue = []Unlockable{UnlockBackground1, UnlockBackground2}
)

func (u Unlockable) String() string {
	switch u {
	case UnlockSunglasses:
		return "sunglasses"
	case UnlockGlasses:
		return "glasses"
	case UnlockBalloon:
		return "balloon"
	case UnlockBeard:
		return "beard"
	case UnlockTie:
		return "tie"
	case UnlockTie2:
		return "tie2"
	case UnlockCrown:
		return "crown"
	case UnlockHat:
		return "hat"
	case UnlockDefaultPlant:
		return "default_plant"
	case UnlockCactus:
		return "cactus"
	case UnlockVase:
		return "vase"
	case UnlockBackground1:
		return "background1"
	case UnlockBackground2:
		return "background2"
	default:
		return "unknown"
	}
}
