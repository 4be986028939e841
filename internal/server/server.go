// Package server wires the skills facade into its transports: a REST
// API plus an MCP endpoint over HTTP, and a gRPC server exposing
// health and reflection.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/yorulabs/skills-mcp/internal/api"
	httpapi "github.com/yorulabs/skills-mcp/internal/api/http"
	"github.com/yorulabs/skills-mcp/internal/config"
	"github.com/yorulabs/skills-mcp/internal/mcp"
	"github.com/yorulabs/skills-mcp/pkg/gateway"
	"github.com/yorulabs/skills-mcp/pkg/logger"
)

// Version reported by initialize and the health endpoint.
const Version = "1.0.0"

// Serve starts the HTTP and gRPC servers and blocks until ctx is
// cancelled.
func Serve(ctx context.Context, cfg *config.Config, service *api.Service) error {
	wg := &sync.WaitGroup{}

	if cfg.Server.GRPC.Addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runGRPC(ctx, cfg.Server.GRPC.Addr); err != nil {
				logger.Errorf("gRPC server error: %v", err)
			}
		}()
	}

	if cfg.Server.HTTP.Addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runHTTP(ctx, cfg.Server.HTTP.Addr, service); err != nil {
				logger.Errorf("HTTP server error: %v", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down servers...")
	wg.Wait()

	return nil
}

// runGRPC starts a gRPC server carrying the standard health and
// reflection services, for load balancers and service discovery.
func runGRPC(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s := grpc.NewServer()

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)
	reflection.Register(s)

	logger.Infof("gRPC server listening on %s", addr)

	go func() {
		<-ctx.Done()
		logger.Info("Stopping gRPC server...")
		healthServer.Shutdown()
		s.GracefulStop()
	}()

	if err := s.Serve(lis); err != nil {
		return fmt.Errorf("gRPC server failed: %w", err)
	}

	return nil
}

// runHTTP starts the HTTP server carrying the REST API and the MCP
// endpoint.
func runHTTP(ctx context.Context, addr string, service *api.Service) error {
	gw := gateway.New(
		runtime.WithErrorHandler(httpErrorHandler),
	)

	handlers := httpapi.NewHandlers(service)
	mcpServer := NewSkillsMCPServer(service, Version)

	v1 := gw.Group("/api/v1")
	v1.GET("/skills", handlers.ListSkills)
	v1.POST("/skills/refresh", handlers.RefreshSkills)
	v1.GET("/skills/{name}", handlers.GetSkill)
	v1.GET("/skills/{name}/resource", handlers.GetSkillResource)
	v1.POST("/skills/{name}/execute", handlers.ExecuteSkillScript)

	if err := gw.Mux().HandlePath("GET", "/health", handlers.HealthCheck); err != nil {
		return fmt.Errorf("failed to register health endpoint: %w", err)
	}
	if err := gw.Mux().HandlePath("POST", "/mcp", mcpHTTPHandler(mcpServer)); err != nil {
		return fmt.Errorf("failed to register mcp endpoint: %w", err)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: accessLogMiddleware(gw),
	}

	logger.Infof("HTTP server listening on %s", addr)

	go func() {
		<-ctx.Done()
		logger.Info("Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// mcpHTTPHandler serves one JSON-RPC request per POST, the stateless
// HTTP flavor of the MCP transport.
func mcpHTTPHandler(s *SkillsMCPServer) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		var req mcp.JSONRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			resp, _ := mcp.NewJSONRPCResponse(nil, nil, mcp.NewJSONRPCError(
				mcp.ErrCodeParseError,
				"Parse error",
				nil,
			))
			writeJSONRPC(w, resp)
			return
		}

		resp, err := s.HandleRequest(r.Context(), &req)
		if err != nil {
			resp, _ = mcp.NewJSONRPCResponse(req.ID, nil, mcp.NewJSONRPCError(
				mcp.ErrCodeInternalError,
				err.Error(),
				nil,
			))
		}
		if resp == nil {
			// Notification; acknowledge with no body.
			w.WriteHeader(http.StatusAccepted)
			return
		}

		writeJSONRPC(w, resp)
	}
}

func writeJSONRPC(w http.ResponseWriter, resp *mcp.JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Errorf("Failed to encode JSON-RPC response: %v", err)
	}
}

// httpErrorHandler handles errors from the gateway runtime.
func httpErrorHandler(_ context.Context, _ *runtime.ServeMux, marshaler runtime.Marshaler, w http.ResponseWriter, r *http.Request, err error) {
	logger.Errorf("HTTP error: %v, path: %s", err, r.URL.Path)
	runtime.DefaultHTTPErrorHandler(context.Background(), nil, marshaler, w, r, err)
}

// accessLogMiddleware logs each request in access-log style.
func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		clientIP := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			clientIP = forwarded
		}

		logger.Infof("%s \"%s %s %s\" %d %d %v",
			clientIP,
			r.Method,
			r.URL.Path,
			r.Proto,
			rw.statusCode,
			rw.bytesWritten,
			time.Since(start),
		)
	})
}

// responseWriter captures status code and response size for access
// logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// Flush lets SSE-style handlers stream through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
