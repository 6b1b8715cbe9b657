/*
Package protocol defines the JSON frames exchanged over the room handshake and
translation session WebSockets.

Every frame is a UTF-8 JSON object with a mandatory "type" discriminator.
Inbound frames decode into the sealed Inbound sum type; outbound frames are
plain structs marshaled by the sender.
*/
package protocol

import "voxpair/internal/app/user"

// Inbound frame types.
const (
	TypeIdentify               = "identify"
	TypeCreateRoom             = "create_room"
	TypeJoinRoom               = "join_room"
	TypeCompleteHandshake      = "complete_handshake"
	TypeLeaveRoom              = "leave_room"
	TypeInitTranslationSession = "init_translation_session"
	TypeJoinTranslationSession = "join_translation_session"
	TypeSpeechInput            = "speech_input"
	TypeTextTranslation        = "text_translation"
	TypeEndTranslationSession  = "end_translation_session"
	TypePing                   = "ping"
)

// Outbound frame types.
const (
	TypeIdentified         = "identified"
	TypeRoomCreated        = "room_created"
	TypeRoomJoined         = "room_joined"
	TypeRoomLeft           = "room_left"
	TypeUserJoined         = "user_joined"
	TypeUserLeft           = "user_left"
	TypeHandshakeComplete  = "handshake_complete"
	TypeSessionCreated     = "translation_session_created"
	TypeSessionJoined      = "translation_session_joined"
	TypeSessionActive      = "translation_session_active"
	TypeSessionEnded       = "translation_session_ended"
	TypeUserDisconnected   = "user_disconnected"
	TypeSpeechToTextResult = "speech_to_text_result"
	TypeTranslationRequest = "translation_request"
	TypeTranslationResult  = "translation_result"
	TypeAudioReady         = "audio_ready"
	TypePong               = "pong"
	TypeError              = "error"
)

// Inbound is implemented by every decoded client frame.
type Inbound interface {
	FrameType() string
	inbound()
}

// Identify registers the sending socket under the participant id.
type Identify struct {
	User user.Participant `json:"user"`
}

// CreateRoom opens a PIN protected room with the sender as host.
type CreateRoom struct {
	User user.Participant `json:"user"`
}

// JoinRoom fills the guest slot of the room whose PIN matches.
type JoinRoom struct {
	Pin  string           `json:"pin" validate:"required,max=16"`
	User user.Participant `json:"user"`
}

// CompleteHandshake confirms the pairing of a room.
type CompleteHandshake struct {
	RoomID string `json:"roomId" validate:"required,max=64"`
}

// LeaveRoom releases the sender's slot in a room.
type LeaveRoom struct {
	RoomID string `json:"roomId" validate:"required,max=64"`
}

// InitTranslationSession creates a session or fills its second slot.
type InitTranslationSession struct {
	SessionID     string           `json:"sessionId,omitempty" validate:"max=64"`
	User          user.Participant `json:"user"`
	User1Language string           `json:"user1Language" validate:"max=35"`
	User2Language string           `json:"user2Language" validate:"max=35"`
}

// JoinTranslationSession fills the second slot of an existing session.
type JoinTranslationSession struct {
	SessionID string           `json:"sessionId" validate:"required,max=64"`
	User      user.Participant `json:"user"`
}

// SpeechInput carries either recorded audio (base64) for backend recognition
// or a transcript produced by client-side recognition.
type SpeechInput struct {
	SessionID  string `json:"sessionId" validate:"required,max=64"`
	AudioData  string `json:"audioData,omitempty" validate:"omitempty,base64"`
	MimeType   string `json:"mimeType,omitempty" validate:"max=64"`
	Transcript string `json:"transcript,omitempty" validate:"max=5000"`
	Language   string `json:"language" validate:"max=35"`
	IsFinal    bool   `json:"isFinal"`
}

// TextTranslation asks for text to be translated and broadcast. An empty
// TargetLanguage selects bidirectional mode.
type TextTranslation struct {
	SessionID      string `json:"sessionId" validate:"required,max=64"`
	Text           string `json:"text" validate:"required,max=5000"`
	SourceLanguage string `json:"sourceLanguage,omitempty" validate:"max=35"`
	TargetLanguage string `json:"targetLanguage,omitempty" validate:"max=35"`
}

// EndTranslationSession tears a session down for both participants.
type EndTranslationSession struct {
	SessionID string `json:"sessionId" validate:"required,max=64"`
}

// Ping is answered with Pong.
type Ping struct{}

func (Identify) FrameType() string               { return TypeIdentify }
func (CreateRoom) FrameType() string             { return TypeCreateRoom }
func (JoinRoom) FrameType() string               { return TypeJoinRoom }
func (CompleteHandshake) FrameType() string      { return TypeCompleteHandshake }
func (LeaveRoom) FrameType() string              { return TypeLeaveRoom }
func (InitTranslationSession) FrameType() string { return TypeInitTranslationSession }
func (JoinTranslationSession) FrameType() string { return TypeJoinTranslationSession }
func (SpeechInput) FrameType() string            { return TypeSpeechInput }
func (TextTranslation) FrameType() string        { return TypeTextTranslation }
func (EndTranslationSession) FrameType() string  { return TypeEndTranslationSession }
func (Ping) FrameType() string                   { return TypePing }

func (Identify) inbound()               {}
func (CreateRoom) inbound()             {}
func (JoinRoom) inbound()               {}
func (CompleteHandshake) inbound()      {}
func (LeaveRoom) inbound()              {}
func (InitTranslationSession) inbound() {}
func (JoinTranslationSession) inbound() {}
func (SpeechInput) inbound()            {}
func (TextTranslation) inbound()        {}
func (EndTranslationSession) inbound()  {}
func (Ping) inbound()                   {}

// ErrorFrame reports an error to the requesting client only.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// Pong answers Ping.
type Pong struct {
	Type string `json:"type"`
}

// Identified acknowledges Identify.
type Identified struct {
	Type string           `json:"type"`
	User user.Participant `json:"user"`
}
