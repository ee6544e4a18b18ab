// Package serve implements the guildwiz JSON-RPC server. It communicates over
// stdio (stdin/stdout) using newline-delimited JSON messages.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ormasoftchile/guildwiz/pkg/service"
	"github.com/ormasoftchile/guildwiz/pkg/session"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
	"go.uber.org/zap"
)

// JSON-RPC error codes.
const (
	codeParse          = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
	codeNotFound       = -32001
	codeSchema         = -32002
	codeTransport      = -32003
)

// Message is a JSON-RPC 2.0 message (request or notification).
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int            `json:"id,omitempty"` // nil for notifications
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CallbackParams are the parameters for wizard/callback.
type CallbackParams struct {
	ID string `json:"id"`
	wizard.Callback
}

// IDParams address one conversation.
type IDParams struct {
	ID string `json:"id"`
}

// ShowParams are the parameters for config/show.
type ShowParams struct {
	GuildID string `json:"guild"`
	Feature string `json:"feature"`
}

// Server is the JSON-RPC server wrapping a Service.
type Server struct {
	reader io.Reader
	writer io.Writer
	mu     sync.Mutex
	svc    *service.Service
	logger *zap.Logger
	cancel context.CancelFunc
}

// New creates a server reading requests from r and writing to w.
func New(svc *service.Service, r io.Reader, w io.Writer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{reader: r, writer: w, svc: svc, logger: logger.Named("serve")}
}

// Run reads messages until EOF, shutdown or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.reader)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			if len(line) == 0 {
				continue
			}
			var msg Message
			if err := json.Unmarshal(line, &msg); err != nil {
				s.sendError(nil, codeParse, fmt.Sprintf("parse error: %v", err))
				continue
			}
			s.dispatch(ctx, &msg)
		}
	}
}

// dispatch routes a message to the appropriate handler.
func (s *Server) dispatch(ctx context.Context, msg *Message) {
	s.logger.Debug("request", zap.String("method", msg.Method))
	switch msg.Method {
	case "wizard/start":
		s.handleStart(ctx, msg)
	case "wizard/callback":
		s.handleCallback(ctx, msg)
	case "wizard/cancel":
		s.handleCancel(ctx, msg)
	case "wizard/get":
		s.handleGet(msg)
	case "features/list":
		s.sendResult(msg.ID, map[string]any{"features": s.svc.Features()})
	case "config/show":
		s.handleShow(ctx, msg)
	case "shutdown":
		s.sendResult(msg.ID, map[string]string{"status": "shutting down"})
		s.cancel()
	default:
		s.sendError(msg.ID, codeMethodNotFound, fmt.Sprintf("unknown method: %s", msg.Method))
	}
}

func (s *Server) handleStart(ctx context.Context, msg *Message) {
	var params service.StartParams
	if !s.decode(msg, &params) {
		return
	}
	v, err := s.svc.Start(ctx, params)
	s.reply(msg, v, err)
}

func (s *Server) handleCallback(ctx context.Context, msg *Message) {
	var params CallbackParams
	if !s.decode(msg, &params) {
		return
	}
	v, err := s.svc.Callback(ctx, params.ID, params.Callback)
	s.reply(msg, v, err)
}

func (s *Server) handleCancel(ctx context.Context, msg *Message) {
	var params IDParams
	if !s.decode(msg, &params) {
		return
	}
	v, err := s.svc.Cancel(ctx, params.ID)
	s.reply(msg, v, err)
}

func (s *Server) handleGet(msg *Message) {
	var params IDParams
	if !s.decode(msg, &params) {
		return
	}
	v, err := s.svc.Get(params.ID)
	s.reply(msg, v, err)
}

func (s *Server) handleShow(ctx context.Context, msg *Message) {
	var params ShowParams
	if !s.decode(msg, &params) {
		return
	}
	rec, ok, err := s.svc.Show(ctx, params.GuildID, params.Feature)
	if err != nil {
		s.sendError(msg.ID, errorCode(err), err.Error())
		return
	}
	s.sendResult(msg.ID, map[string]any{"found": ok, "record": rec})
}

func (s *Server) decode(msg *Message, v any) bool {
	if err := json.Unmarshal(msg.Params, v); err != nil {
		s.sendError(msg.ID, codeInvalidParams, fmt.Sprintf("invalid params: %v", err))
		return false
	}
	return true
}

// reply answers with the view. A conversation that ended on an error still
// returns its view; the error travels in view.error and a wizard/ended
// notification.
func (s *Server) reply(msg *Message, v *session.View, err error) {
	if v == nil {
		if err == nil {
			err = errors.New("no conversation")
		}
		s.sendError(msg.ID, errorCode(err), err.Error())
		return
	}
	if err != nil {
		s.logger.Info("conversation failed", zap.String("conversation", v.ID), zap.Error(err))
	}
	s.sendResult(msg.ID, v)
	if v.Terminal() {
		s.sendEvent("wizard/ended", v)
	}
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, service.ErrUnknownFeature):
		return codeNotFound
	case errors.Is(err, wizard.ErrSchema):
		return codeSchema
	case errors.Is(err, wizard.ErrTransport):
		return codeTransport
	default:
		return codeInternal
	}
}

// --- Message sending ---

func (s *Server) sendResult(id *int, result any) {
	data, _ := json.Marshal(result)
	s.send(&Message{JSONRPC: "2.0", ID: id, Result: json.RawMessage(data)})
}

func (s *Server) sendError(id *int, code int, message string) {
	s.send(&Message{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}})
}

func (s *Server) sendEvent(method string, params any) {
	data, _ := json.Marshal(params)
	s.send(&Message{JSONRPC: "2.0", Method: method, Params: json.RawMessage(data)})
}

func (s *Server) send(msg *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, _ := json.Marshal(msg)
	fmt.Fprintf(s.writer, "%s\n", data)
}
