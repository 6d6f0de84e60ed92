// Package ipc implements the control protocol between glazed and its
// clients (glazectl, the tray). Messages are length-prefixed frames with
// a fixed binary header and a JSON payload, carried over a unix socket
// on most platforms and a named pipe on Windows.
package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Protocol constants.
const (
	// MagicNumber identifies glaze protocol messages ("GIPC").
	MagicNumber uint32 = 0x47495043

	// ProtocolVersion is the current protocol version.
	ProtocolVersion uint8 = 1

	// HeaderSize is the fixed size of the message header in bytes.
	HeaderSize = 16

	// MaxPayloadSize caps a single message payload.
	MaxPayloadSize = 1 << 20 // 1MB
)

// MessageType identifies the kind of message.
type MessageType uint16

// Message types. Requests are even, their responses odd.
const (
	MsgPing     MessageType = 0x0001
	MsgPong     MessageType = 0x0002
	MsgError    MessageType = 0x0003
	MsgShutdown MessageType = 0x0004

	MsgStatus        MessageType = 0x0010
	MsgStatusResp    MessageType = 0x0011
	MsgApply         MessageType = 0x0012
	MsgApplyResp     MessageType = 0x0013
	MsgDump          MessageType = 0x0014
	MsgDumpResp      MessageType = 0x0015
	MsgReset         MessageType = 0x0016
	MsgResetResp     MessageType = 0x0017
	MsgReload        MessageType = 0x0018
	MsgReloadResp    MessageType = 0x0019
	MsgHistory       MessageType = 0x001A
	MsgHistoryResp   MessageType = 0x001B
	MsgSetConfig     MessageType = 0x001C
	MsgSetConfigResp MessageType = 0x001D
)

var messageTypeNames = map[MessageType]string{
	MsgPing:          "ping",
	MsgPong:          "pong",
	MsgError:         "error",
	MsgShutdown:      "shutdown",
	MsgStatus:        "status",
	MsgStatusResp:    "status_resp",
	MsgApply:         "apply",
	MsgApplyResp:     "apply_resp",
	MsgDump:          "dump",
	MsgDumpResp:      "dump_resp",
	MsgReset:         "reset",
	MsgResetResp:     "reset_resp",
	MsgReload:        "reload",
	MsgReloadResp:    "reload_resp",
	MsgHistory:       "history",
	MsgHistoryResp:   "history_resp",
	MsgSetConfig:     "set_config",
	MsgSetConfigResp: "set_config_resp",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%04x)", uint16(t))
}

// Header flags.
const (
	// FlagJSON indicates a JSON-encoded payload.
	FlagJSON uint8 = 0x01
)

// Error codes carried in ErrorPayload.
const (
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeNotRunning     = "not_running"
	ErrCodeInternal       = "internal"
	ErrCodeUnavailable    = "unavailable"
)

// Header is the fixed-size message header. All integers are big-endian.
type Header struct {
	Magic     uint32
	Version   uint8
	Flags     uint8
	Type      MessageType
	RequestID uint32
	Length    uint32
}

// Message is a complete protocol message.
type Message struct {
	Header  Header
	Payload []byte
}

// NewMessage creates a message with an optional JSON payload.
func NewMessage(t MessageType, requestID uint32, payload interface{}) (*Message, error) {
	msg := &Message{
		Header: Header{
			Magic:     MagicNumber,
			Version:   ProtocolVersion,
			Type:      t,
			RequestID: requestID,
		},
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("ipc: encode payload: %w", err)
		}
		msg.Payload = data
		msg.Header.Flags |= FlagJSON
		msg.Header.Length = uint32(len(data))
	}
	return msg, nil
}

// NewResponse creates a response to a request, preserving its request ID.
func NewResponse(req *Message, t MessageType, payload interface{}) (*Message, error) {
	return NewMessage(t, req.Header.RequestID, payload)
}

// NewErrorMessage creates an error response.
func NewErrorMessage(requestID uint32, code, detail string) *Message {
	msg, err := NewMessage(MsgError, requestID, &ErrorPayload{Code: code, Detail: detail})
	if err != nil {
		// ErrorPayload always marshals
		panic(err)
	}
	return msg
}

// Decode unmarshals the JSON payload into v.
func (m *Message) Decode(v interface{}) error {
	if m.Header.Flags&FlagJSON == 0 {
		return fmt.Errorf("ipc: message %s has no JSON payload", m.Header.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("ipc: decode payload: %w", err)
	}
	return nil
}

// Write serializes the message to w as a single frame.
func (m *Message) Write(w io.Writer) error {
	buf := make([]byte, HeaderSize+len(m.Payload))
	binary.BigEndian.PutUint32(buf[0:4], m.Header.Magic)
	buf[4] = m.Header.Version
	buf[5] = m.Header.Flags
	binary.BigEndian.PutUint16(buf[6:8], uint16(m.Header.Type))
	binary.BigEndian.PutUint32(buf[8:12], m.Header.RequestID)
	binary.BigEndian.PutUint32(buf[12:16], uint32(len(m.Payload)))
	copy(buf[HeaderSize:], m.Payload)
	_, err := w.Write(buf)
	return err
}

// ReadHeader reads and validates a message header from r.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	h := &Header{
		Magic:     binary.BigEndian.Uint32(buf[0:4]),
		Version:   buf[4],
		Flags:     buf[5],
		Type:      MessageType(binary.BigEndian.Uint16(buf[6:8])),
		RequestID: binary.BigEndian.Uint32(buf[8:12]),
		Length:    binary.BigEndian.Uint32(buf[12:16]),
	}

	if h.Magic != MagicNumber {
		return nil, fmt.Errorf("ipc: bad magic 0x%08x", h.Magic)
	}
	if h.Version != ProtocolVersion {
		return nil, fmt.Errorf("ipc: unsupported protocol version %d", h.Version)
	}
	if h.Length > MaxPayloadSize {
		return nil, fmt.Errorf("ipc: payload too large: %d bytes", h.Length)
	}
	return h, nil
}

// ReadMessage reads a complete message from r.
func ReadMessage(r io.Reader) (*Message, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	msg := &Message{Header: *h}
	if h.Length > 0 {
		msg.Payload = make([]byte, h.Length)
		if _, err := io.ReadFull(r, msg.Payload); err != nil {
			return nil, fmt.Errorf("ipc: read payload: %w", err)
		}
	}
	return msg, nil
}

// ErrorPayload carries error details in a MsgError response.
type ErrorPayload struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse is the payload of a MsgStatusResp.
type StatusResponse struct {
	Version       string    `json:"version"`
	PID           int       `json:"pid"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSec     int64     `json:"uptime_sec"`
	WorkerStatus  string    `json:"worker_status"`
	ConfigPath    string    `json:"config_path"`
	ConfigSummary string    `json:"config_summary"`
}

// DumpResponse is the payload of a MsgDumpResp.
type DumpResponse struct {
	Dump string `json:"dump"`
}

// ReloadResponse is the payload of a MsgReloadResp.
type ReloadResponse struct {
	ConfigSummary string `json:"config_summary"`
}

// HistoryRequest is the payload of a MsgHistory request.
type HistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// HistoryEntry is a single recorded appearance transition.
type HistoryEntry struct {
	Time      time.Time `json:"time"`
	Window    uint64    `json:"window"`
	Monitor   uint64    `json:"monitor"`
	Secondary bool      `json:"secondary"`
	State     string    `json:"state"`
	Accent    string    `json:"accent"`
	Color     string    `json:"color"`
	Err       string    `json:"err,omitempty"`
}

// HistoryResponse is the payload of a MsgHistoryResp.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// SetConfigRequest is the payload of a MsgSetConfig request. It carries
// a full config document in TOML form; the daemon validates it before
// adopting it.
type SetConfigRequest struct {
	TOML string `json:"toml"`
}
