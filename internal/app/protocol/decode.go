package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrMalformed is returned for frames that are not JSON objects or carry no
// type. Such frames are dropped without a reply.
var ErrMalformed = errors.New("malformed frame")

// UnknownTypeError is returned for well-formed frames with an unrecognized type.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type: %s", e.Type)
}

// InvalidFrameError is returned when a recognized frame fails validation.
type InvalidFrameError struct {
	Type   string
	Reason string
}

func (e *InvalidFrameError) Error() string {
	return fmt.Sprintf("invalid %s frame: %s", e.Type, e.Reason)
}

// Decode parses one client frame into its Inbound variant.
func Decode(data []byte) (Inbound, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch typ {
	case TypeIdentify:
		return decodeAs[Identify](typ, data)
	case TypeCreateRoom:
		return decodeAs[CreateRoom](typ, data)
	case TypeJoinRoom:
		return decodeAs[JoinRoom](typ, data)
	case TypeCompleteHandshake:
		return decodeAs[CompleteHandshake](typ, data)
	case TypeLeaveRoom:
		return decodeAs[LeaveRoom](typ, data)
	case TypeInitTranslationSession:
		return decodeAs[InitTranslationSession](typ, data)
	case TypeJoinTranslationSession:
		return decodeAs[JoinTranslationSession](typ, data)
	case TypeSpeechInput:
		return decodeAs[SpeechInput](typ, data)
	case TypeTextTranslation:
		return decodeAs[TextTranslation](typ, data)
	case TypeEndTranslationSession:
		return decodeAs[EndTranslationSession](typ, data)
	case TypePing:
		return Ping{}, nil
	default:
		return nil, &UnknownTypeError{Type: typ}
	}
}

// checker is implemented by frames with cross-field rules the struct tags cannot express.
type checker interface {
	check() error
}

func decodeAs[T Inbound](typ string, data []byte) (Inbound, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &InvalidFrameError{Type: typ, Reason: err.Error()}
	}

	if err := validate.Struct(msg); err != nil {
		return nil, &InvalidFrameError{Type: typ, Reason: describe(err)}
	}

	if c, ok := any(msg).(checker); ok {
		if err := c.check(); err != nil {
			return nil, &InvalidFrameError{Type: typ, Reason: err.Error()}
		}
	}

	return msg, nil
}

// describe flattens validator errors into "field:tag" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+":"+fe.Tag())
	}
	return strings.Join(parts, ",")
}

func (m SpeechInput) check() error {
	if m.AudioData == "" && strings.TrimSpace(m.Transcript) == "" {
		return errors.New("audioData or transcript is required")
	}
	return nil
}
