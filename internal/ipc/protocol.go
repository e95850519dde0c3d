package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bnema/waywall/internal/output"
)

// Message types
const (
	TypeStatus = "status"
	TypeError  = "error"
)

// maxMessageSize bounds a frame; status replies are a few hundred bytes
const maxMessageSize = 1 << 20

var (
	ErrMessageTooLarge = errors.New("message too large")
	ErrWrongType       = errors.New("unexpected message type")
)

// NewStatusMessage creates a status query
func NewStatusMessage() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"type": TypeStatus})
}

// NewStatusResponseMessage wraps a status snapshot
func NewStatusResponseMessage(st output.Status) (*structpb.Struct, error) {
	surfaces := make([]any, 0, len(st.Surfaces))
	for _, s := range st.Surfaces {
		surfaces = append(surfaces, map[string]any{
			"output":     s.Output,
			"output_id":  float64(s.OutputID),
			"width":      float64(s.Width),
			"height":     float64(s.Height),
			"configured": s.Configured,
			"committed":  s.Committed,
		})
	}
	return structpb.NewStruct(map[string]any{
		"type":         TypeStatus,
		"backend":      st.Backend,
		"compositor":   st.Compositor,
		"version":      st.Version,
		"capabilities": st.Capabilities,
		"surfaces":     surfaces,
	})
}

// NewErrorMessage creates an error reply
func NewErrorMessage(errMsg string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"type":  structpb.NewStringValue(TypeError),
		"error": structpb.NewStringValue(errMsg),
	}}
}

// MessageType returns the "type" field, empty when missing
func MessageType(msg *structpb.Struct) string {
	return msg.GetFields()["type"].GetStringValue()
}

// GetStatusResponse decodes a status reply
func GetStatusResponse(msg *structpb.Struct) (output.Status, error) {
	switch MessageType(msg) {
	case TypeStatus:
	case TypeError:
		return output.Status{}, fmt.Errorf("server error: %s", GetError(msg))
	default:
		return output.Status{}, fmt.Errorf("%w: %q", ErrWrongType, MessageType(msg))
	}

	f := msg.GetFields()
	st := output.Status{
		Backend:      f["backend"].GetStringValue(),
		Compositor:   f["compositor"].GetStringValue(),
		Version:      f["version"].GetStringValue(),
		Capabilities: f["capabilities"].GetStringValue(),
	}
	for _, v := range f["surfaces"].GetListValue().GetValues() {
		sf := v.GetStructValue().GetFields()
		st.Surfaces = append(st.Surfaces, output.SurfaceStatus{
			Output:     sf["output"].GetStringValue(),
			OutputID:   uint32(sf["output_id"].GetNumberValue()),
			Width:      int32(sf["width"].GetNumberValue()),
			Height:     int32(sf["height"].GetNumberValue()),
			Configured: sf["configured"].GetBoolValue(),
			Committed:  sf["committed"].GetBoolValue(),
		})
	}
	return st, nil
}

// GetError extracts the error text of an error reply
func GetError(msg *structpb.Struct) string {
	return msg.GetFields()["error"].GetStringValue()
}

// readMessage reads one length-prefixed protobuf message
func readMessage(r io.Reader) (*structpb.Struct, error) {
	// Read message length (4 bytes, big endian)
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("failed to read message length: %w", err)
	}
	if length > maxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read message data: %w", err)
	}

	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &msg, nil
}

// writeMessage writes one length-prefixed protobuf message
func writeMessage(w io.Writer, msg *structpb.Struct) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if len(data) > maxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(data))
	}

	// Length prefix and payload go out in a single write
	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data))) //nolint:gosec // bounded by maxMessageSize
	copy(frame[4:], data)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}
