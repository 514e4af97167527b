package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/dshills/nbsense/internal/logging"
)

// Conn is the subset of *websocket.Conn the client uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// deadlineSetter is implemented by *websocket.Conn.
type deadlineSetter interface {
	SetWriteDeadline(t time.Time) error
}

// Client sends requests over a kernel channels connection and dispatches
// replies to the callbacks registered for their parent msg_id. Callbacks run
// on the client's read goroutine, one at a time.
type Client struct {
	conn     Conn
	session  string
	username string
	legacy   bool
	registry *Registry
	log      *logging.Logger

	writeMu sync.Mutex
	closed  atomic.Bool
	done    chan struct{}
	errMu   sync.Mutex
	err     error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSession sets the session id. Defaults to a fresh NewSessionID.
func WithSession(id string) ClientOption {
	return func(c *Client) {
		c.session = id
	}
}

// WithUsername sets the header username.
func WithUsername(name string) ClientOption {
	return func(c *Client) {
		c.username = name
	}
}

// WithLegacyCallbacks delivers bare content to the CompleteReply and Output
// slots instead of whole messages to ShellReply and IOPubOutput.
func WithLegacyCallbacks() ClientOption {
	return func(c *Client) {
		c.legacy = true
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient wraps an established connection.
func NewClient(conn Conn, opts ...ClientOption) *Client {
	c := &Client{
		conn:     conn,
		username: "nbsense",
		registry: NewRegistry(),
		log:      logging.Nop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == "" {
		c.session = NewSessionID()
	}
	c.log = c.log.WithComponent("kernel").WithField("session", c.session)
	return c
}

// DialOptions configures Dial.
type DialOptions struct {
	// Token is sent as "Authorization: token <Token>" when set.
	Token string

	// HandshakeTimeout bounds the websocket handshake. Defaults to 10s.
	HandshakeTimeout time.Duration
}

// Dial connects to a kernel channels endpoint.
func Dial(ctx context.Context, endpoint string, dopts DialOptions, opts ...ClientOption) (*Client, error) {
	timeout := dopts.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	header := http.Header{}
	if dopts.Token != "" {
		header.Set("Authorization", "token "+dopts.Token)
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", endpoint, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return NewClient(conn, opts...), nil
}

// ChannelsURL builds the websocket endpoint for a kernel from the notebook
// server base URL (http, https, ws or wss).
func ChannelsURL(base, kernelID, session string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/kernels/" + url.PathEscape(kernelID) + "/channels"
	q := u.Query()
	if session != "" {
		q.Set("session_id", session)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Session returns the session id stamped on outgoing headers.
func (c *Client) Session() string {
	return c.session
}

// NewMessage builds a request with a fresh correlation id.
func (c *Client) NewMessage(msgType string, content any) *Message {
	return NewMessage(c.session, c.username, msgType, content)
}

// SetCallbacks registers cb for replies whose parent is msgID.
func (c *Client) SetCallbacks(msgID string, cb Callbacks) {
	c.registry.Set(msgID, cb)
}

// Pending returns the number of requests still holding callbacks.
func (c *Client) Pending() int {
	return c.registry.Pending()
}

// Send writes msg to the connection. It does not wait for a reply. When the
// write fails, callbacks registered for msg are dropped.
func (c *Client) Send(ctx context.Context, msg *Message) error {
	if err := c.send(ctx, msg); err != nil {
		c.registry.Forget(msg.ID())
		return err
	}
	return nil
}

func (c *Client) send(ctx context.Context, msg *Message) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Header.MsgType, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if ds, ok := c.conn.(deadlineSetter); ok {
		deadline, _ := ctx.Deadline()
		_ = ds.SetWriteDeadline(deadline)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s: %w", msg.Header.MsgType, err)
	}
	c.log.Debug("sent %s %s", msg.Header.MsgType, msg.Header.MsgID)
	return nil
}

// Start launches the read loop. It returns immediately.
func (c *Client) Start(ctx context.Context) {
	go c.readLoop(ctx)
}

// Done is closed when the read loop exits.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that stopped the read loop, if any.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Close closes the connection. The read loop exits on its next read.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.done)

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.errMu.Lock()
				c.err = err
				c.errMu.Unlock()
				c.log.Warn("read loop stopped: %v", err)
			}
			return
		}
		c.dispatch(data)
	}
}

// dispatch routes one inbound frame.
func (c *Client) dispatch(data []byte) {
	if !gjson.ValidBytes(data) {
		c.log.Warn("dropping malformed frame")
		return
	}

	parent := gjson.GetBytes(data, "parent_header.msg_id").String()
	if parent == "" {
		return
	}
	cb, ok := c.registry.Get(parent)
	if !ok {
		return
	}

	msgType := gjson.GetBytes(data, "header.msg_type").String()
	channel := gjson.GetBytes(data, "channel").String()
	if channel == "" {
		channel = inferChannel(msgType)
	}
	content := []byte(gjson.GetBytes(data, "content").Raw)

	switch channel {
	case ChannelShell:
		if c.legacy && cb.CompleteReply != nil {
			cb.CompleteReply(content)
		} else if cb.ShellReply != nil {
			cb.ShellReply(data)
		}
		c.registry.MarkReplied(parent)

	case ChannelIOPub:
		switch msgType {
		case MsgStatus:
			if gjson.GetBytes(data, "content.execution_state").String() == "idle" {
				c.registry.MarkIdle(parent)
			}
		case MsgDisplayData, MsgExecuteResult:
			if c.legacy && cb.Output != nil {
				cb.Output(msgType, content)
			} else if cb.IOPubOutput != nil {
				cb.IOPubOutput(data)
			}
		}
	}
}

func inferChannel(msgType string) string {
	if strings.HasSuffix(msgType, "_reply") {
		return ChannelShell
	}
	return ChannelIOPub
}
