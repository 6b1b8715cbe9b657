/*
Package errs provides custom error types and application-level error code constants.

These error codes identify business and system errors both inside the server and
in the frames and HTTP responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request or frame validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrUnknownMessageType indicates a well-formed frame whose type this endpoint does not handle.
	ErrUnknownMessageType = 1010

	// ErrNotIdentified indicates a frame that needs a participant arrived before one was known.
	ErrNotIdentified = 1011
)

// 21xx: Room Handshake Errors
const (
	// ErrRoomNotFound indicates that no room matches the given PIN or room id.
	ErrRoomNotFound = 2103

	// ErrRoomIsFull indicates that the room already has a guest.
	ErrRoomIsFull = 2104

	// ErrAlreadyInRoom indicates that the host tried to join its own room.
	ErrAlreadyInRoom = 2105

	// ErrInvalidPin indicates that the PIN is not a 6-digit numeric string.
	ErrInvalidPin = 2106

	// ErrNotInRoom indicates that the sender does not occupy the room.
	ErrNotInRoom = 2107
)

// 22xx: Translation Session Errors
const (
	// ErrSessionNotFound indicates that the session id does not exist.
	ErrSessionNotFound = 2201

	// ErrSessionFull indicates that both participant slots are taken.
	ErrSessionFull = 2202

	// ErrNotInSession indicates that the sender is not a participant of the session.
	ErrNotInSession = 2203

	// ErrMessageContentTooLong indicates that the text exceeded the maximum length limit.
	ErrMessageContentTooLong = 2204
)

// 4xxx: External Collaborator Errors
const (
	// ErrSpeechRecognitionFailed indicates that the speech-to-text stage failed.
	ErrSpeechRecognitionFailed = 4001

	// ErrTranslationFailed indicates that the translation stage failed.
	ErrTranslationFailed = 4002

	// ErrSpeechSynthesisFailed indicates that the text-to-speech stage failed.
	ErrSpeechSynthesisFailed = 4003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
