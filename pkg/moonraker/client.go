// Package moonraker is a client for the Moonraker printer API server. It
// uploads emitted G-code files and drives prints over the websocket
// JSON-RPC interface.
package moonraker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"cncgo/pkg/errors"
	"cncgo/pkg/log"
)

// Config holds client configuration.
type Config struct {
	// Base URL of the Moonraker server (e.g., http://printer.local:7125)
	URL string

	// APIKey is sent as X-Api-Key when set
	APIKey string

	// Timeout bounds each HTTP request and each JSON-RPC call
	Timeout time.Duration
}

// DefaultConfig returns a Config for a local Moonraker instance.
func DefaultConfig() Config {
	return Config{
		URL:     "http://localhost:7125",
		Timeout: 30 * time.Second,
	}
}

// UploadResult describes a file stored by Moonraker.
type UploadResult struct {
	Path         string `json:"path"`
	Root         string `json:"root"`
	Action       string `json:"-"`
	PrintStarted bool   `json:"-"`
}

// NotificationHandler receives server-pushed JSON-RPC notifications.
type NotificationHandler func(method string, params json.RawMessage)

// JSON-RPC 2.0 message types
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      *int64          `json:"id,omitempty"`
}

type callResult struct {
	resp rpcResponse
	err  error
}

// Client talks to one Moonraker server. Upload may be used without
// Connect; Call and the helpers built on it need an open websocket.
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client
	log  *log.Logger

	nextID atomic.Int64

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[int64]chan callResult
	notify  NotificationHandler

	writeMu sync.Mutex
}

// NewClient validates cfg and creates a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	base, err := url.Parse(cfg.URL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, errors.ConfigValidationError("moonraker", "url",
			fmt.Sprintf("%q is not an http(s) URL", cfg.URL))
	}
	base.Path = strings.TrimSuffix(base.Path, "/")
	return &Client{
		cfg:     cfg,
		base:    base,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log.GetLogger("moonraker"),
		pending: make(map[int64]chan callResult),
	}, nil
}

// OnNotification sets the handler for server notifications.
func (c *Client) OnNotification(fn NotificationHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = fn
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path += path
	return u.String()
}

// websocketURL maps the base URL onto the ws(s) /websocket endpoint.
func (c *Client) websocketURL() string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/websocket"
	return u.String()
}

func (c *Client) header() http.Header {
	h := http.Header{}
	if c.cfg.APIKey != "" {
		h.Set("X-Api-Key", c.cfg.APIKey)
	}
	return h
}

// Upload stores r as name in the gcodes root.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := mw.WriteField("root", "gcodes")
		if err == nil {
			var part io.Writer
			part, err = mw.CreateFormFile("file", name)
			if err == nil {
				_, err = io.Copy(part, r)
			}
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/server/files/upload"), pr)
	if err != nil {
		pr.Close()
		return nil, errors.RemoteError("upload", "building request failed", err)
	}
	req.Header = c.header()
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.RemoteError("upload", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.RemoteError("upload", "reading response failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.RemoteError("upload",
			fmt.Sprintf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body))), nil)
	}

	var out struct {
		Item         UploadResult `json:"item"`
		Action       string       `json:"action"`
		PrintStarted bool         `json:"print_started"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.RemoteError("upload", "decoding response failed", err)
	}
	out.Item.Action = out.Action
	out.Item.PrintStarted = out.PrintStarted
	c.log.WithField("path", out.Item.Path).Info("uploaded")
	return &out.Item, nil
}

// Connect opens the websocket and starts reading replies.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.Timeout}
	conn, _, err := dialer.DialContext(ctx, c.websocketURL(), c.header())
	if err != nil {
		return errors.RemoteError("connect", "websocket dial failed", err)
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		conn.Close()
		return errors.RemoteError("connect", "already connected", nil)
	}
	c.conn = conn
	c.mu.Unlock()

	go c.readPump(conn)
	return nil
}

// readPump routes replies to waiting calls until the connection fails.
func (c *Client) readPump(conn *websocket.Conn) {
	var err error
	for {
		var data []byte
		if _, data, err = conn.ReadMessage(); err != nil {
			break
		}

		var msg rpcResponse
		if jerr := json.Unmarshal(data, &msg); jerr != nil {
			c.log.WithError(jerr).Warn("undecodable message")
			continue
		}

		c.mu.Lock()
		if msg.ID != nil {
			if ch, ok := c.pending[*msg.ID]; ok {
				delete(c.pending, *msg.ID)
				ch <- callResult{resp: msg}
			}
			c.mu.Unlock()
			continue
		}
		notify := c.notify
		c.mu.Unlock()

		if msg.Method != "" {
			c.log.WithField("method", msg.Method).Debug("notification")
			if notify != nil {
				notify(msg.Method, msg.Params)
			}
		}
	}

	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.WithError(err).Warn("websocket closed")
	}

	c.mu.Lock()
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- callResult{err: err}
	}
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

// Call sends a JSON-RPC request and waits for its result.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	ch := make(chan callResult, 1)

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, errors.RemoteError(method, "not connected", nil)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(c.cfg.Timeout))
	err := conn.WriteJSON(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: id})
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, errors.RemoteError(method, "sending request failed", err)
	}

	timer := time.NewTimer(c.cfg.Timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, errors.RemoteError(method, "connection lost", res.err)
		}
		if res.resp.Error != nil {
			return nil, errors.RemoteError(method,
				fmt.Sprintf("server error %d: %s", res.resp.Error.Code, res.resp.Error.Message), nil)
		}
		return res.resp.Result, nil
	case <-timer.C:
		c.forget(id)
		return nil, errors.RemoteError(method, fmt.Sprintf("no reply within %s", c.cfg.Timeout), nil)
	case <-ctx.Done():
		c.forget(id)
		return nil, errors.RemoteError(method, "cancelled", ctx.Err())
	}
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// StartPrint starts printing a file from the gcodes root.
func (c *Client) StartPrint(ctx context.Context, filename string) error {
	_, err := c.Call(ctx, "printer.print.start", map[string]string{"filename": filename})
	return err
}

// RunScript runs G-code directly on the printer.
func (c *Client) RunScript(ctx context.Context, script string) error {
	_, err := c.Call(ctx, "printer.gcode.script", map[string]string{"script": script})
	return err
}

// Close closes the websocket, if open.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return conn.Close()
}
