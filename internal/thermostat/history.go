package thermostat

// EventKind is the kind of a recorded thermostat transition.
type EventKind int8

const (
	Unknown      EventKind = -1 // empty history slot
	Activation   EventKind = 0  // heating started
	Deactivation EventKind = 1  // heating stopped
)

func (k EventKind) String() string {
	switch k {
	case Activation:
		return "ACTIVATION"
	case Deactivation:
		return "DEACTIVATION"
	default:
		return "UNKNOWN"
	}
}

// HistorySize is the number of events kept.
const HistorySize = 10

// Record is one history slot.
type Record struct {
	Kind   EventKind
	Millis uint32
}

// History is a fixed circular buffer of the last HistorySize events.
// Once full, each append overwrites the oldest slot.
type History struct {
	slots  [HistorySize]Record
	cursor int
}

// NewHistory returns a history with every slot Unknown.
func NewHistory() History {
	var h History
	for i := range h.slots {
		h.slots[i] = Record{Kind: Unknown}
	}
	return h
}

// Append writes an event at the cursor and advances it.
func (h *History) Append(kind EventKind, ms uint32) {
	h.slots[h.cursor] = Record{Kind: kind, Millis: ms}
	h.cursor = (h.cursor + 1) % HistorySize
}

// Latest returns the kind of the most recently written event, or Unknown
// when nothing has been written.
func (h *History) Latest() EventKind {
	return h.slots[(h.cursor+HistorySize-1)%HistorySize].Kind
}

// FirstTime scans slots from index 0 and returns the timestamp of the first
// slot holding kind, or 0 if none does.
//
// After the buffer wraps this is the lowest-index match, which is not
// necessarily the most recent occurrence.
func (h *History) FirstTime(kind EventKind) uint32 {
	for _, r := range h.slots {
		if r.Kind == kind {
			return r.Millis
		}
	}
	return 0
}

// Cursor returns the index the next event will be written to.
func (h *History) Cursor() int {
	return h.cursor
}

// Records returns a copy of the slots in index order.
func (h *History) Records() []Record {
	out := make([]Record, HistorySize)
	copy(out, h.slots[:])
	return out
}
