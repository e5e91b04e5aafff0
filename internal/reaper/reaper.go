// Package reaper periodically sweeps every registry for state left
// behind by connections that vanished without a clean disconnect —
// a closed tab, a dead NAT binding, a crashed tab — and for floor
// holders that have gone silent past their timeout.
package reaper

import (
	"context"
	"time"

	"github.com/floorwave/relay/internal/core"
	"github.com/floorwave/relay/internal/domain"
	"github.com/rs/zerolog"
)

// FloorEventSink receives the events produced by a timeout sweep so the
// caller can translate and dispatch them exactly as the live opcode
// handlers do. main.go wires this to the signaling controller.
type FloorEventSink func(ch *domain.Channel, events []core.FloorEvent)

type Reaper struct {
	Users     *core.UserRegistry
	Channels  *core.ChannelRegistry
	Endpoints *core.EndpointRegistry
	Floors    *core.FloorManager

	ZombieTimeoutMs int64
	Interval        time.Duration
	NowMs           func() int64

	Dispatch FloorEventSink
	Log      zerolog.Logger
}

// Run ticks every r.Interval until ctx is cancelled. The first sweep
// waits a full interval rather than firing immediately, since nothing
// can be stale the instant the process starts.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Reaper) sweep() {
	now := r.NowMs()

	for _, uid := range r.Users.FindStale(now, r.ZombieTimeoutMs) {
		for _, ch := range r.Channels.All() {
			if _, member := core.Members(ch)[uid]; member {
				core.Leave(ch, uid)
				events := r.Floors.OnDisconnect(ch, uid, time.Now())
				if r.Dispatch != nil {
					r.Dispatch(ch, events)
				}
			}
		}
		r.Users.Unregister(uid)
		r.Log.Info().Str("module", "reaper").Str("user_id", string(uid)).Msg("reaped zombie user")
	}

	for _, ufrag := range r.Endpoints.FindStale(now, r.ZombieTimeoutMs) {
		r.Endpoints.Remove(ufrag)
		r.Log.Info().Str("module", "reaper").Str("ufrag", string(ufrag)).Msg("reaped zombie endpoint")
	}

	// DTLS sessions remove themselves from the session map when their
	// goroutine exits (handshake failure or timeout, or a failed read on
	// the established connection); there is no stale-session step here.

	if events := r.Floors.CheckTimeouts(time.Now()); len(events) > 0 && r.Dispatch != nil {
		eventsByChannel := make(map[domain.ChannelID][]core.FloorEvent)
		for _, ev := range events {
			eventsByChannel[ev.ChannelID] = append(eventsByChannel[ev.ChannelID], ev)
		}
		for chID, chEvents := range eventsByChannel {
			ch, ok := r.Channels.Get(chID)
			if !ok {
				continue
			}
			r.Dispatch(ch, chEvents)
		}
	}
}
