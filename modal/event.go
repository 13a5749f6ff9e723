package modal

// EventType tags a queued engine event.
type EventType uint8

const (
	EventNoteOn EventType = iota
	EventNoteOff
	EventCC
	EventPitchBend
	EventParameter
)

// Event is one sample-stamped engine event. Fields are shared across
// types: Note/Velocity/Channel for notes, Value for pitch bend and CC,
// ParamID+Value for parameter changes.
type Event struct {
	Type         EventType
	SampleOffset int32

	Note     uint8
	Channel  uint8
	CC       uint8
	Velocity float32
	Value    float32
	ParamID  uint32
}

// MaxEvents is the fixed queue capacity, sized for worst-case MIDI
// density within one render block.
const MaxEvents = 512

// EventQueue is a fixed-capacity, allocation-free event buffer. Events
// keep their push order; the engine relies on producers pushing in
// non-decreasing sample-offset order.
type EventQueue struct {
	events [MaxEvents]Event
	count  int
}

// Push appends an event. Returns false (dropping the event) when full.
func (q *EventQueue) Push(e Event) bool {
	if q.count >= MaxEvents {
		return false
	}
	q.events[q.count] = e
	q.count++
	return true
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int { return q.count }

// At returns the event at index idx. Callers index within [0, Len()).
func (q *EventQueue) At(idx int) Event { return q.events[idx] }

// Clear empties the queue without releasing storage.
func (q *EventQueue) Clear() { q.count = 0 }
