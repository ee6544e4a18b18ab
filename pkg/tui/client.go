package tui

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ormasoftchile/guildwiz/pkg/serve"
	"github.com/ormasoftchile/guildwiz/pkg/service"
	"github.com/ormasoftchile/guildwiz/pkg/session"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

// errClosed is returned for requests still pending when the server pipe
// closes.
var errClosed = errors.New("server closed")

// rpcMessage is the JSON-RPC 2.0 message exchanged with the wizard server.
type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int            `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *serve.RPCError `json:"error,omitempty"`
}

// Client talks to a serve.Server over in-memory JSON-RPC pipes.
type Client struct {
	writer io.Writer
	reader *bufio.Scanner
	nextID int
	mu     sync.Mutex

	// pending maps request IDs to response channels.
	pending map[int]chan *rpcMessage

	// Events receives server notifications; it is closed with the pipe.
	Events chan *rpcMessage

	done chan struct{}
}

// NewClient creates a client that reads from r and writes to w.
// Call Listen in a goroutine to start processing server messages.
func NewClient(r io.Reader, w io.Writer) *Client {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	return &Client{
		writer:  w,
		reader:  scanner,
		pending: make(map[int]chan *rpcMessage),
		Events:  make(chan *rpcMessage, 64),
		done:    make(chan struct{}),
	}
}

// Listen reads messages from the server and dispatches them until the pipe
// closes. Requests still waiting then fail with errClosed.
func (c *Client) Listen() {
	defer func() {
		c.mu.Lock()
		for id, ch := range c.pending {
			delete(c.pending, id)
			close(ch)
		}
		c.mu.Unlock()
		close(c.Events)
		close(c.done)
	}()
	for c.reader.Scan() {
		line := c.reader.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg rpcMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}

		if msg.ID != nil {
			c.mu.Lock()
			ch, ok := c.pending[*msg.ID]
			delete(c.pending, *msg.ID)
			c.mu.Unlock()
			if ok {
				ch <- &msg
			}
			continue
		}
		if msg.Method != "" {
			select {
			case c.Events <- &msg:
			default:
				// nobody listening
			}
		}
	}
}

// Done is closed once the server pipe closes.
func (c *Client) Done() <-chan struct{} { return c.done }

// request sends a JSON-RPC request and waits for the response.
func (c *Client) request(method string, params any) (*rpcMessage, error) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan *rpcMessage, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	rawParams := json.RawMessage("{}")
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		rawParams = b
	}

	data, err := json.Marshal(rpcMessage{JSONRPC: "2.0", ID: &id, Method: method, Params: rawParams})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.mu.Lock()
	_, err = fmt.Fprintf(c.writer, "%s\n", data)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	resp, ok := <-ch
	if !ok {
		return nil, errClosed
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp, nil
}

func (c *Client) view(method string, params any) (*session.View, error) {
	resp, err := c.request(method, params)
	if err != nil {
		return nil, err
	}
	var v session.View
	if err := json.Unmarshal(resp.Result, &v); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}
	return &v, nil
}

// Start opens a conversation.
func (c *Client) Start(p service.StartParams) (*session.View, error) {
	return c.view("wizard/start", p)
}

// Callback delivers one answer or navigation action.
func (c *Client) Callback(id string, cb wizard.Callback) (*session.View, error) {
	return c.view("wizard/callback", serve.CallbackParams{ID: id, Callback: cb})
}

// Cancel abandons the conversation.
func (c *Client) Cancel(id string) (*session.View, error) {
	return c.view("wizard/cancel", serve.IDParams{ID: id})
}

// Shutdown asks the server to stop.
func (c *Client) Shutdown() error {
	_, err := c.request("shutdown", nil)
	return err
}

// ended reports whether a decoded view is terminal.
func ended(v *session.View) bool {
	return v != nil && (v.Phase == wizard.PhaseCompiled.String() || v.Phase == wizard.PhaseAbandoned.String())
}
