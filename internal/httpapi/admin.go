package httpapi

import (
	"net/http"

	"github.com/floorwave/relay/internal/core"
	"github.com/floorwave/relay/internal/domain"
	"github.com/floorwave/relay/internal/signaling"
	"github.com/gin-gonic/gin"
)

type channelListItem struct {
	ChannelID   string `json:"channel_id"`
	Freq        string `json:"freq"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
	Capacity    int    `json:"capacity"`
	FloorTaken  bool   `json:"floor_taken"`
}

type channelDetail struct {
	channelListItem
	Members    []string `json:"members"`
	FloorState string   `json:"floor_state"`
	Holder     string   `json:"holder,omitempty"`
	QueueSize  int      `json:"queue_size"`
}

type traceResponse struct {
	Users              int `json:"users"`
	Channels           int `json:"channels"`
	Endpoints          int `json:"endpoints"`
	FloorsTaken        int `json:"floors_taken"`
	HandshakesInFlight int `json:"handshakes_in_flight"`
}

// registerAdminRoutes exposes read-only views over the live registries
// for operators — never anything that mutates floor or channel state,
// which only flows through the signaling opcodes.
func registerAdminRoutes(api *gin.RouterGroup, ctrl *signaling.Controller) {
	api.GET("/channels", func(c *gin.Context) {
		out := make([]channelListItem, 0)
		for _, ch := range ctrl.Channels.All() {
			out = append(out, summarize(ch))
		}
		c.JSON(http.StatusOK, out)
	})

	api.GET("/channels/:id", func(c *gin.Context) {
		ch, ok := ctrl.Channels.Get(domain.ChannelID(c.Param("id")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		c.JSON(http.StatusOK, detail(ch))
	})

	api.GET("/channels/:id/members", func(c *gin.Context) {
		ch, ok := ctrl.Channels.Get(domain.ChannelID(c.Param("id")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		members := make([]string, 0)
		for id := range core.Members(ch) {
			members = append(members, string(id))
		}
		c.JSON(http.StatusOK, members)
	})

	api.GET("/trace", func(c *gin.Context) {
		inFlight := 0
		if ctrl.HandshakesInFlight != nil {
			inFlight = ctrl.HandshakesInFlight()
		}
		c.JSON(http.StatusOK, traceResponse{
			Users:              ctrl.Users.Count(),
			Channels:           ctrl.Channels.Count(),
			Endpoints:          ctrl.Endpoints.Count(),
			FloorsTaken:        ctrl.Channels.CountFloorTaken(),
			HandshakesInFlight: inFlight,
		})
	})
}

func summarize(ch *domain.Channel) channelListItem {
	ch.FloorMu.Lock()
	taken := ch.Floor.State == domain.FloorTaken
	ch.FloorMu.Unlock()
	return channelListItem{
		ChannelID:   string(ch.ID),
		Freq:        ch.Freq,
		Name:        ch.Name,
		MemberCount: core.MemberCount(ch),
		Capacity:    ch.Capacity,
		FloorTaken:  taken,
	}
}

func detail(ch *domain.Channel) channelDetail {
	members := make([]string, 0)
	for id := range core.Members(ch) {
		members = append(members, string(id))
	}

	ch.FloorMu.Lock()
	state := "idle"
	holder := ""
	if ch.Floor.State == domain.FloorTaken {
		state = "taken"
		holder = string(ch.Floor.Holder)
	}
	queueSize := len(ch.Floor.Queue)
	ch.FloorMu.Unlock()

	return channelDetail{
		channelListItem: summarize(ch),
		Members:         members,
		FloorState:      state,
		Holder:          holder,
		QueueSize:       queueSize,
	}
}
