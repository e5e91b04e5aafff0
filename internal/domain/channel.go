package domain

import (
	"sync"
	"time"
)

// Channel is a PTT room: a name, a frequency label, a capacity and the set
// of currently joined users. Floor is embedded rather than referenced by ID
// because every channel owns exactly one floor-control instance for its
// whole lifetime. MembersMu and FloorMu are independent: a floor decision
// never needs to block a concurrent join/leave and vice versa. Both guard
// a read-decide-mutate step only; callers release before any network send.
type Channel struct {
	ID        ChannelID
	Name      string
	Freq      string
	Capacity  int
	CreatedAt time.Time

	MembersMu sync.Mutex
	Members   map[UserID]struct{}

	FloorMu sync.Mutex
	Floor   *FloorControl
}

func NewChannel(id ChannelID, freq, name string, capacity int, now time.Time) *Channel {
	return &Channel{
		ID:        id,
		Name:      name,
		Freq:      freq,
		Capacity:  capacity,
		CreatedAt: now,
		Members:   make(map[UserID]struct{}),
		Floor:     NewFloorControl(),
	}
}
