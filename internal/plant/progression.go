// v0
// internal/plant/progression.go
package plant

import "math"

// Level maps cumulative experience onto the level staircase. Reaching level
// L+1 from L costs 2*L experience, so the cumulative thresholds are
// 2, 6, 12, 20, ...
func Level(xp uint16) uint16 {
	level, need, remaining := uint32(1), uint32(2), uint32(xp)
	for remaining >= need {
		remaining -= need
		level++
		need = 2 * level
	}
	return uint16(level)
}

// NextLevelXP is the cumulative experience at which level+1 is reached,
// level*(level+1), clamped to the XP counter's range.
func NextLevelXP(level uint16) uint16 {
	if level < 1 {
		level = 1
	}
	next := uint32(level) * (uint32(level) + 1)
	if next > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(next)
}

// Award converts an average mood into the experience granted for one period.
func Award(avgMood uint8) uint16 {
	return uint16(BaseXP * int(avgMood) / maxMood)
}

// LevelUpUnlock is the item granted on every level-up.
const LevelUpUnlock = UnlockSunglasses

// Tracker owns the progression counters of one plant: the cycle counter,
// the mood window and the level watermark used for level-up edge detection.
type Tracker struct {
	period   int
	cycle    int
	history  *MoodHistory
	progress Snapshot
}

// NewTracker resumes progression from snap. The watermark starts at the
// persisted level, raised to 1 for blank records, so a restored plant does
// not fire a level-up for a level it already reached.
func NewTracker(snap Snapshot, period int) *Tracker {
	if period < 1 {
		period = DefaultAwardPeriod
	}
	if snap.Level < 1 {
		snap.Level = 1
	}
	return &Tracker{
		period:   period,
		history:  NewMoodHistory(period),
		progress: snap,
	}
}

// Step records mood and, on every period-th call, awards experience and
// checks for a level-up. It returns the award granted this cycle and a
// snapshot when the level watermark rose.
func (t *Tracker) Step(mood uint8) (uint16, *Snapshot) {
	t.history.Push(mood)
	t.cycle++
	if t.cycle < t.period {
		return 0, nil
	}
	t.cycle = 0

	awarded := Award(t.history.Average())
	t.progress.XP = saturatingAdd(t.progress.XP, awarded)

	level := Level(t.progress.XP)
	if level <= t.progress.Level {
		return awarded, nil
	}
	t.progress.Level = level
	t.progress.UnlockedItems |= uint16(LevelUpUnlock)
	snap := t.progress
	return awarded, &snap
}

// Snapshot returns a copy of the tracked progression.
func (t *Tracker) Snapshot() Snapshot { return t.progress }

// History exposes the mood window.
func (t *Tracker) History() *MoodHistory { return t.history }

// Cycle reports how many cycles have elapsed since the last award.
func (t *Tracker) Cycle() int { return t.cycle }

// Period reports the award period.
func (t *Tracker) Period() int { return t.period }

func (t *Tracker) setProfile(p Profile) { t.progress.Profile = p }

func saturatingAdd(a, b uint16) uint16 {
	if uint32(a)+uint32(b) > math.MaxUint16 {
		return math.MaxUint16
	}
	return a + b
}
