// v0
// internal/plant/history.go
package plant

// MoodHistory is a fixed-capacity sliding window over the most recent moods.
// The zero value is unusable; build one with NewMoodHistory.
type MoodHistory struct {
	buf  []uint8
	head int // index of the oldest value
	n    int
}

// NewMoodHistory allocates a window holding up to capacity values.
// Capacities below one are raised to one.
func NewMoodHistory(capacity int) *MoodHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &MoodHistory{buf: make([]uint8, capacity)}
}

// Push appends mood, evicting the oldest value once the window is full.
func (h *MoodHistory) Push(mood uint8) {
	if h.n < len(h.buf) {
		h.buf[(h.head+h.n)%len(h.buf)] = mood
		h.n++
		return
	}
	h.buf[h.head] = mood
	h.head = (h.head + 1) % len(h.buf)
}

// Average returns the floor mean of the held values, or 0 when empty.
func (h *MoodHistory) Average() uint8 {
	if h.n == 0 {
		return 0
	}
	sum := 0
	for i := 0; i < h.n; i++ {
		sum += int(h.buf[(h.head+i)%len(h.buf)])
	}
	return uint8(sum / h.n)
}

// Len reports how many values are currently held.
func (h *MoodHistory) Len() int { return h.n }

// Cap reports the window size.
func (h *MoodHistory) Cap() int { return len(h.buf) }

// Values returns the held moods, oldest first.
func (h *MoodHistory) Values() []uint8 {
	out := make([]uint8, h.n)
	for i := range out {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}
