package signaling

// --- client -> server ---

type identifyPayload struct {
	UserID   string `json:"user_id"`
	Token    string `json:"token"`
	Priority *uint8 `json:"priority,omitempty"`
}

type channelCreatePayload struct {
	ChannelID   string `json:"channel_id"`
	Freq        string `json:"freq"`
	ChannelName string `json:"channel_name"`
	Capacity    int    `json:"capacity,omitempty"`
}

type channelJoinPayload struct {
	ChannelID string  `json:"channel_id"`
	SSRC      uint32  `json:"ssrc"`
	Ufrag     string  `json:"ufrag"`
	SDPOffer  *string `json:"sdp_offer,omitempty"`
}

type channelLeavePayload struct {
	ChannelID string `json:"channel_id"`
}

type channelDeletePayload struct {
	ChannelID string `json:"channel_id"`
}

type channelInfoPayload struct {
	ChannelID string `json:"channel_id"`
}

type messageCreatePayload struct {
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

type floorRequestPayload struct {
	ChannelID string  `json:"channel_id"`
	Priority  *uint8  `json:"priority,omitempty"`
	Indicator *string `json:"indicator,omitempty"`
}

type floorReleasePayload struct {
	ChannelID string `json:"channel_id"`
}

type floorPongPayload struct {
	ChannelID string `json:"channel_id"`
}

// --- server -> client ---

type helloPayload struct {
	HeartbeatIntervalMs int64 `json:"heartbeat_interval_ms"`
}

type readyPayload struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type ackPayload struct {
	Op   uint8       `json:"op"`
	Data interface{} `json:"data,omitempty"`
}

type channelJoinAckData struct {
	ChannelID string   `json:"channel_id"`
	SDPAnswer *string  `json:"sdp_answer,omitempty"`
	Members   []string `json:"active_members"`
}

type channelEventPayload struct {
	Event     string `json:"event"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
}

type channelSummary struct {
	ChannelID   string `json:"channel_id"`
	Freq        string `json:"freq"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
	Capacity    int    `json:"capacity"`
	CreatedAt   int64  `json:"created_at"`
}

type channelInfoData struct {
	channelSummary
	Members []string `json:"peers"`
}

type messageEventPayload struct {
	ChannelID string `json:"channel_id"`
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type floorGrantedPayload struct {
	ChannelID  string `json:"channel_id"`
	UserID     string `json:"user_id"`
	DurationMs int64  `json:"duration_ms"`
}

type floorTakenPayload struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Indicator string `json:"indicator"`
}

type floorIdlePayload struct {
	ChannelID string `json:"channel_id"`
}

type floorRevokePayload struct {
	ChannelID string `json:"channel_id"`
	Cause     string `json:"cause"`
}

type floorQueuePosInfoPayload struct {
	ChannelID     string `json:"channel_id"`
	QueuePosition int    `json:"queue_position"`
	QueueSize     int    `json:"queue_size"`
}

type floorPingPayload struct {
	ChannelID string `json:"channel_id"`
}

type sdpOfferPayload struct {
	ChannelID string `json:"channel_id"`
	Ufrag     string `json:"ufrag"`
	Offer     string `json:"offer"`
}

type sdpAnswerPayload struct {
	ChannelID string `json:"channel_id"`
	Answer    string `json:"answer"`
}
