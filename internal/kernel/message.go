package kernel

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ProtocolVersion is the messaging protocol version stamped on headers.
const ProtocolVersion = "5.3"

// Channel names.
const (
	ChannelShell = "shell"
	ChannelIOPub = "iopub"
)

// Message types nbsense sends or inspects.
const (
	MsgIntellisenseRequest = "intellisense_request"
	MsgStatus              = "status"
	MsgDisplayData         = "display_data"
	MsgExecuteResult       = "execute_result"
)

// Header identifies a message.
type Header struct {
	MsgID    string `json:"msg_id,omitempty"`
	Username string `json:"username,omitempty"`
	Session  string `json:"session,omitempty"`
	MsgType  string `json:"msg_type,omitempty"`
	Version  string `json:"version,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Message is a kernel message as carried over the channels websocket.
type Message struct {
	Header       Header         `json:"header"`
	ParentHeader Header         `json:"parent_header"`
	Metadata     map[string]any `json:"metadata"`
	Content      any            `json:"content"`
	Channel      string         `json:"channel"`
	Buffers      []any          `json:"buffers"`
}

// ID returns the message id, which is also its correlation id.
func (m *Message) ID() string {
	return m.Header.MsgID
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewMessage builds a shell channel message with a fresh msg_id.
func NewMessage(session, username, msgType string, content any) *Message {
	return &Message{
		Header: Header{
			MsgID:    uuid.NewString(),
			Username: username,
			Session:  session,
			MsgType:  msgType,
			Version:  ProtocolVersion,
			Date:     time.Now().UTC().Format(time.RFC3339Nano),
		},
		Metadata: map[string]any{},
		Content:  content,
		Channel:  ChannelShell,
		Buffers:  []any{},
	}
}
