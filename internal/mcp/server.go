package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// HandlerFunc handles one MCP method.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Server dispatches MCP requests to registered method handlers. It is
// transport-agnostic: Serve runs the stdio loop, HandleRequest serves a
// single request for HTTP bindings.
type Server struct {
	name     string
	version  string
	handlers map[string]HandlerFunc
	mu       sync.RWMutex
}

// NewServer creates an MCP server identifying itself with the given
// name and version.
func NewServer(name, version string) *Server {
	return &Server{
		name:     name,
		version:  version,
		handlers: make(map[string]HandlerFunc),
	}
}

// RegisterHandler registers a handler for an MCP method.
func (s *Server) RegisterHandler(method string, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = handler
}

// HandleRequest handles one JSON-RPC request. Notifications return a
// nil response.
func (s *Server) HandleRequest(ctx context.Context, req *JSONRPCRequest) (*JSONRPCResponse, error) {
	switch req.Method {
	case MethodInitialize:
		return s.handleInitialize(req)
	case MethodInitialized:
		return nil, nil
	case MethodPing:
		return NewJSONRPCResponse(req.ID, struct{}{}, nil)
	}

	s.mu.RLock()
	handler, exists := s.handlers[req.Method]
	s.mu.RUnlock()

	if !exists {
		if req.IsNotification() {
			return nil, nil
		}
		return NewJSONRPCResponse(req.ID, nil, NewJSONRPCError(
			ErrCodeMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method),
			nil,
		))
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		return NewJSONRPCResponse(req.ID, nil, NewJSONRPCError(
			ErrCodeInternalError,
			err.Error(),
			nil,
		))
	}

	return NewJSONRPCResponse(req.ID, result, nil)
}

func (s *Server) handleInitialize(req *JSONRPCRequest) (*JSONRPCResponse, error) {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return NewJSONRPCResponse(req.ID, nil, NewJSONRPCError(
				ErrCodeInvalidParams,
				"Invalid initialize parameters",
				nil,
			))
		}
	}

	result := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    s.name,
			Version: s.version,
		},
	}

	return NewJSONRPCResponse(req.ID, result, nil)
}

// maxLineBytes bounds a single JSON-RPC message on the stdio transport.
const maxLineBytes = 10 * 1024 * 1024

// Serve reads newline-delimited JSON-RPC requests from reader and
// writes responses to writer until EOF or context cancellation. Each
// line is decoded independently, so a malformed line produces one
// parse-error response and the stream resynchronizes on the next line.
func (s *Server) Serve(ctx context.Context, reader io.Reader, writer io.Writer) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	encoder := json.NewEncoder(writer)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			resp, _ := NewJSONRPCResponse(nil, nil, NewJSONRPCError(
				ErrCodeParseError,
				"Parse error",
				nil,
			))
			_ = encoder.Encode(resp)
			continue
		}

		resp, err := s.HandleRequest(ctx, &req)
		if err != nil {
			resp, _ = NewJSONRPCResponse(req.ID, nil, NewJSONRPCError(
				ErrCodeInternalError,
				err.Error(),
				nil,
			))
		}
		if resp == nil {
			continue
		}

		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
	}

	return scanner.Err()
}
