package handshake

import (
	"voxpair/internal/app/protocol"
	"voxpair/internal/app/user"
)

// RoomFrame carries a room snapshot (room_created, room_joined).
type RoomFrame struct {
	Type string `json:"type"`
	Room Room   `json:"room"`
}

// ParticipantFrame notifies an occupant about the other one (user_joined, user_left).
type ParticipantFrame struct {
	Type   string           `json:"type"`
	RoomID string           `json:"roomId"`
	User   user.Participant `json:"user"`
}

// RoomLeftFrame acknowledges leave_room to the leaver.
type RoomLeftFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// HandshakeCompleteFrame is broadcast to both occupants once pairing is confirmed.
type HandshakeCompleteFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Room   Room   `json:"room"`
}

// NewRoomCreated builds the create_room reply.
func NewRoomCreated(r Room) RoomFrame {
	return RoomFrame{Type: protocol.TypeRoomCreated, Room: r}
}

// NewRoomJoined builds the join_room reply.
func NewRoomJoined(r Room) RoomFrame {
	return RoomFrame{Type: protocol.TypeRoomJoined, Room: r}
}

// NewRoomLeft builds the leave_room reply.
func NewRoomLeft(roomID string) RoomLeftFrame {
	return RoomLeftFrame{Type: protocol.TypeRoomLeft, RoomID: roomID}
}
