// Package signaling decodes the WebSocket control-plane envelope,
// dispatches each opcode to the registries in internal/core, and
// encodes their results (including core.FloorEvent) back into frames.
package signaling

// Client-to-server opcodes.
const (
	OpHeartbeat     uint8 = 1
	OpIdentify      uint8 = 3
	OpChannelCreate uint8 = 10
	OpChannelJoin   uint8 = 11
	OpChannelLeave  uint8 = 12
	OpChannelUpdate uint8 = 13
	OpChannelDelete uint8 = 14
	OpChannelList   uint8 = 15
	OpChannelInfo   uint8 = 16
	OpMessageCreate uint8 = 20
	OpFloorRequest  uint8 = 30
	OpFloorRelease  uint8 = 31
	OpFloorPing     uint8 = 32
)

// Server-to-client opcodes.
const (
	OpHello         uint8 = 0
	OpHeartbeatAck  uint8 = 2
	OpReady         uint8 = 4
	OpChannelEvent  uint8 = 100
	OpMessageEvent  uint8 = 101
	OpAck           uint8 = 200
	OpError         uint8 = 201
	OpFloorGranted  uint8 = 110
	OpFloorDeny     uint8 = 111
	OpFloorTaken    uint8 = 112
	OpFloorIdle     uint8 = 113
	OpFloorRevoke   uint8 = 114
	OpFloorQueuePos uint8 = 115
	OpFloorPong     uint8 = 116
)
