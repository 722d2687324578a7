// Package mcp implements the line-delimited JSON-RPC 2.0 dispatcher the
// assistant talks to, with a tool registry backed by the cache and the
// upstream client.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ComponentType defines the MCP server component type identifier
const ComponentType = "mcp"

const (
	protocolVersion = "2024-11-05"
	serverName      = "smartsuite-mcp-server"
	serverVersion   = "1.0.0"
)

// JSON-RPC 2.0 error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ToolHandler executes one tool call.
type ToolHandler func(ctx context.Context, args map[string]any) (any, error)

// Tool is one registry entry.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     ToolHandler `json:"-"`
}

// Server dispatches JSON-RPC requests read line-by-line from in and
// writes one response per line to out. Requests run concurrently; the
// writer is serialized.
type Server struct {
	cache    *cache.Manager
	upstream *smartsuite.Client
	logger   zerolog.Logger

	in  io.Reader
	out io.Writer

	tools     map[string]Tool
	toolOrder []string

	writeMu sync.Mutex
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewServer creates the dispatcher and registers the tool surface.
func NewServer(cacheManager *cache.Manager, upstream *smartsuite.Client, in io.Reader, out io.Writer, logger zerolog.Logger) *Server {
	s := &Server{
		cache:    cacheManager,
		upstream: upstream,
		logger:   logger.With().Str("component", "mcp-server").Logger(),
		in:       in,
		out:      out,
		tools:    make(map[string]Tool),
	}
	s.registerTools()
	return s
}

// GetType returns the component type identifier
func (s *Server) GetType() string {
	return ComponentType
}

// Shutdown waits for in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// register adds a tool to the registry, keeping declaration order for
// tools/list.
func (s *Server) register(tool Tool) {
	s.tools[tool.Name] = tool
	s.toolOrder = append(s.toolOrder, tool.Name)
}

// Serve reads requests until in closes or ctx is cancelled. Each request
// dispatches on its own goroutine.
func (s *Server) Serve(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleLine(ctx, line)
		}()
	}

	s.wg.Wait()
	return scanner.Err()
}

func (s *Server) handleLine(ctx context.Context, line []byte) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		s.writeResponse(response{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeParseError, Message: "parse error"},
		})
		return
	}

	traceID := uuid.NewString()
	logger := s.logger.With().Str("trace_id", traceID).Str("method", req.Method).Logger()

	result, rpcErr := s.dispatch(ctx, &req, logger)

	// Notifications carry no id and get no response.
	if len(req.ID) == 0 {
		return
	}

	resp := response{JSONRPC: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
		logger.Warn().Int("code", rpcErr.Code).Str("message", rpcErr.Message).Msg("request failed")
	} else {
		resp.Result = result
	}
	s.writeResponse(resp)
}

func (s *Server) dispatch(ctx context.Context, req *request, logger zerolog.Logger) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": serverName, "version": serverVersion},
		}, nil

	case "notifications/initialized", "initialized":
		return nil, nil

	case "ping":
		return map[string]any{}, nil

	case "tools/list":
		return map[string]any{"tools": s.listTools()}, nil

	case "tools/call":
		return s.callTool(ctx, req.Params, logger)

	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method %q", req.Method)}
	}
}

func (s *Server) listTools() []map[string]any {
	out := make([]map[string]any, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		tool := s.tools[name]
		out = append(out, map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}
	return out
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage, logger zerolog.Logger) (any, *rpcError) {
	var call struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "invalid tools/call params"}
	}

	tool, ok := s.tools[call.Name]
	if !ok {
		return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("unknown tool %q", call.Name)}
	}
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}

	result, err := tool.Handler(ctx, call.Arguments)
	if err != nil {
		logger.Error().Err(err).Str("tool", call.Name).Msg("tool call failed")
		return map[string]any{
			"content": []map[string]any{{"type": "text", "text": err.Error()}},
			"isError": true,
		}, nil
	}

	text, ok := result.(string)
	if !ok {
		encoded, err := json.Marshal(result)
		if err != nil {
			return nil, &rpcError{Code: codeInternalError, Message: "failed to encode tool result"}
		}
		text = string(encoded)
	}

	return map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
	}, nil
}

func (s *Server) writeResponse(resp response) {
	encoded, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(encoded, '\n')); err != nil {
		s.logger.Error().Err(err).Msg("failed to write response")
	}
}
