package domain

import "time"

// Indicator is the MBCP floor indicator. It is carried verbatim in
// signaling and never itself affects a preemption decision — only numeric
// priority does (spec Open Question, preserved as-is).
type Indicator string

const (
	IndicatorNormal        Indicator = "normal"
	IndicatorBroadcast     Indicator = "broadcast"
	IndicatorImminentPeril Indicator = "imminent_peril"
	IndicatorEmergency     Indicator = "emergency"
)

// EmergencyPriority always preempts, regardless of the current holder's
// priority.
const EmergencyPriority uint8 = 255

type FloorState int

const (
	FloorIdle FloorState = iota
	FloorTaken
)

// QueueEntry is a pending FLOOR_REQUEST waiting for the current holder to
// release or be revoked. The queue is ordered priority-descending, then
// queued_at ascending (fairness among equal priorities).
type QueueEntry struct {
	UserID    UserID
	Priority  uint8
	Indicator Indicator
	QueuedAt  time.Time
}

// FloorControl is the per-channel MBCP-style state machine. It never
// performs I/O and never blocks: every mutating method is called under the
// channel's mutex and returns synchronously so the caller can release the
// lock before dispatching any signaling frame.
type FloorControl struct {
	State           FloorState
	Holder          UserID
	HolderPriority  uint8
	HolderIndicator Indicator
	TakenAt         time.Time
	LastPingAt      time.Time
	Queue           []QueueEntry
}

func NewFloorControl() *FloorControl {
	return &FloorControl{State: FloorIdle}
}

// GrantLocked transitions the state machine to Taken(user, priority).
// Callers hold the channel's FloorMu and emit GRANTED/TAKEN frames only
// after releasing it.
func (f *FloorControl) GrantLocked(user UserID, priority uint8, indicator Indicator, now time.Time) {
	f.State = FloorTaken
	f.Holder = user
	f.HolderPriority = priority
	f.HolderIndicator = indicator
	f.TakenAt = now
	f.LastPingAt = now
}

// ClearLocked resets the floor to Idle. Callers emit IDLE (or grant the
// next queued entry instead of calling ClearLocked) after releasing the
// channel's FloorMu.
func (f *FloorControl) ClearLocked() {
	f.State = FloorIdle
	f.Holder = ""
	f.HolderPriority = 0
	f.HolderIndicator = ""
	f.TakenAt = time.Time{}
	f.LastPingAt = time.Time{}
}

// CanPreempt reports whether a request at the given priority would preempt
// the current holder. EmergencyPriority (255) preempts unconditionally;
// otherwise strict greater-than is required (equal priority enqueues). The
// indicator is not consulted.
func (f *FloorControl) CanPreempt(priority uint8, indicator Indicator) bool {
	if f.State != FloorTaken {
		return false
	}
	if priority == EmergencyPriority {
		return true
	}
	return priority > f.HolderPriority
}

// Enqueue inserts or updates a pending request, keeping the queue ordered
// priority-descending then queued_at-ascending. An existing entry for the
// same user is replaced rather than duplicated: it is removed and the new
// entry is inserted at the position its priority and time give it.
func (f *FloorControl) Enqueue(user UserID, priority uint8, indicator Indicator, now time.Time) {
	f.RemoveFromQueue(user)
	entry := QueueEntry{UserID: user, Priority: priority, Indicator: indicator, QueuedAt: now}
	pos := len(f.Queue)
	for i, e := range f.Queue {
		if e.Priority < entry.Priority {
			pos = i
			break
		}
	}
	f.Queue = append(f.Queue, QueueEntry{})
	copy(f.Queue[pos+1:], f.Queue[pos:])
	f.Queue[pos] = entry
}

// DequeueNext pops the highest-priority, earliest-queued entry.
func (f *FloorControl) DequeueNext() (QueueEntry, bool) {
	if len(f.Queue) == 0 {
		return QueueEntry{}, false
	}
	next := f.Queue[0]
	f.Queue = f.Queue[1:]
	return next, true
}

func (f *FloorControl) RemoveFromQueue(user UserID) {
	out := f.Queue[:0]
	for _, e := range f.Queue {
		if e.UserID != user {
			out = append(out, e)
		}
	}
	f.Queue = out
}

// QueuePosition returns the 1-based position of user in the queue, or 0 if
// absent.
func (f *FloorControl) QueuePosition(user UserID) int {
	for i, e := range f.Queue {
		if e.UserID == user {
			return i + 1
		}
	}
	return 0
}

func (f *FloorControl) IsPingTimeout(now time.Time, timeout time.Duration) bool {
	return f.State == FloorTaken && now.Sub(f.LastPingAt) >= timeout
}

func (f *FloorControl) IsMaxTakenExceeded(now time.Time, maxTaken time.Duration) bool {
	return f.State == FloorTaken && !f.TakenAt.IsZero() && now.Sub(f.TakenAt) >= maxTaken
}
