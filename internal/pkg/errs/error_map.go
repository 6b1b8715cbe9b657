package errs

import "net/http"

// Outbound frame types used when an error is surfaced over a WebSocket.
const (
	TypeGeneric         = "error"
	TypeRoomNotFound    = "room_not_found"
	TypeRoomFull        = "room_full"
	TypeAlreadyInRoom   = "already_in_room"
	TypeInvalidPin      = "invalid_pin"
	TypeSessionNotFound = "session_not_found"
	TypeSessionFull     = "session_full"
)

// errorMap holds the template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrUnknownMessageType:   {Code: ErrUnknownMessageType, Message: "Unknown message type: %s"},
	ErrNotIdentified:        {Code: ErrNotIdentified, Message: "Identify before sending this message."},

	// 21xx: Room Handshake Errors
	ErrRoomNotFound:  {Code: ErrRoomNotFound, Type: TypeRoomNotFound, Message: "Room not found.", Status: http.StatusNotFound},
	ErrRoomIsFull:    {Code: ErrRoomIsFull, Type: TypeRoomFull, Message: "Room is full."},
	ErrAlreadyInRoom: {Code: ErrAlreadyInRoom, Type: TypeAlreadyInRoom, Message: "You are already in this room."},
	ErrInvalidPin:    {Code: ErrInvalidPin, Type: TypeInvalidPin, Message: "PIN must be 6 digits."},
	ErrNotInRoom:     {Code: ErrNotInRoom, Message: "You are not in this room."},

	// 22xx: Translation Session Errors
	ErrSessionNotFound:       {Code: ErrSessionNotFound, Type: TypeSessionNotFound, Message: "Translation session not found.", Status: http.StatusNotFound},
	ErrSessionFull:           {Code: ErrSessionFull, Type: TypeSessionFull, Message: "Translation session is full."},
	ErrNotInSession:          {Code: ErrNotInSession, Message: "You are not part of this translation session."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},

	// 4xxx: External Collaborator Errors
	ErrSpeechRecognitionFailed: {Code: ErrSpeechRecognitionFailed, Message: "Speech recognition failed: %v", Status: http.StatusBadGateway},
	ErrTranslationFailed:       {Code: ErrTranslationFailed, Message: "Translation failed: %v", Status: http.StatusBadGateway},
	ErrSpeechSynthesisFailed:   {Code: ErrSpeechSynthesisFailed, Message: "Speech synthesis failed: %v", Status: http.StatusBadGateway},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
