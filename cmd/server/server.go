package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/config"
	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/db"
	"github.com/nickyhof/matview/metadata"
	"github.com/nickyhof/matview/session"
)

// Server accepts one statement per line and answers with one JSON line.
// Every connection gets its own engine and session.
type Server struct {
	listener      net.Listener
	metadata      metadata.Metadata
	accessControl access.AccessControl
	identity      core.Identity
	catalog       string
	schema        string
	authConfig    *config.AuthConfig
	tlsEnabled    bool
	logger        *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a server whose connections run as identity with the
// given session defaults.
func NewServer(md metadata.Metadata, accessControl access.AccessControl, identity core.Identity, catalog, schema string, logger *zap.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		metadata:      md,
		accessControl: accessControl,
		identity:      identity,
		catalog:       catalog,
		schema:        schema,
		logger:        logger.Named("server"),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// WithAuth requires every connection to authenticate before running
// statements.
func (s *Server) WithAuth(authConfig *config.AuthConfig) *Server {
	s.authConfig = authConfig
	return s
}

func (s *Server) authRequired() bool {
	return s.authConfig != nil && s.authConfig.Enabled
}

func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.serve(listener)
	return nil
}

// StartTLS listens with the certificate in certFile and keyFile.
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	listener, err := tls.Listen("tcp", addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to start TLS server: %w", err)
	}
	s.tlsEnabled = true
	s.serve(listener)
	return nil
}

func (s *Server) serve(listener net.Listener) {
	s.listener = listener
	s.logger.Info("Server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("tls", s.tlsEnabled),
		zap.Bool("auth", s.authRequired()))

	s.wg.Add(1)
	go s.acceptLoop()
}

func (s *Server) TLSEnabled() bool {
	return s.tlsEnabled
}

// Stop closes the listener and waits for open connections to finish.
func (s *Server) Stop() error {
	s.cancel()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("Accept failed", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// connection is the per-client state.
type connection struct {
	remote string
	state  ConnectionState
	engine *db.Engine
	server *Server
}

// rebind swaps the session identity, keeping the current defaults.
func (c *connection) rebind(identity core.Identity) {
	current := c.engine.Session()
	c.engine = c.server.newEngine(identity, current.Catalog, current.Schema)
}

func (s *Server) newEngine(identity core.Identity, catalog, schema string) *db.Engine {
	return db.NewEngine(s.metadata, s.accessControl, session.New(identity, catalog, schema), s.logger)
}

func (s *Server) handleConnection(netConn net.Conn) {
	defer s.wg.Done()
	defer netConn.Close()

	// unblock the read below on shutdown
	stop := context.AfterFunc(s.ctx, func() { netConn.Close() })
	defer stop()

	conn := &connection{
		remote: netConn.RemoteAddr().String(),
		engine: s.newEngine(s.identity, s.catalog, s.schema),
		server: s,
	}
	s.logger.Debug("Client connected", zap.String("remote", conn.remote))

	reader := bufio.NewReader(netConn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF && s.ctx.Err() == nil {
				s.logger.Warn("Read failed", zap.String("remote", conn.remote), zap.Error(err))
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if lower := strings.ToLower(line); lower == "quit" || lower == "exit" {
			s.logger.Debug("Client disconnected", zap.String("remote", conn.remote))
			return
		}

		var response Response
		if isAuthCommand(line) {
			response = s.handleAuth(line, conn)
		} else {
			response = s.handleStatement(line, conn)
		}

		data, err := EncodeResponse(response)
		if err != nil {
			s.logger.Error("Failed to encode response", zap.Error(err))
			continue
		}
		if _, err := netConn.Write(data); err != nil {
			s.logger.Warn("Write failed", zap.String("remote", conn.remote), zap.Error(err))
			return
		}
	}
}

func (s *Server) handleStatement(line string, conn *connection) Response {
	if s.authRequired() {
		if !conn.state.IsAuthenticated() {
			return errorResponse("", errors.New("authentication required: send AUTH JWT <token>"))
		}
		if conn.state.Expired(time.Now()) {
			conn.state = ConnectionState{}
			return errorResponse("", errors.New("authentication required: token expired"))
		}
	}

	request, err := DecodeRequest(line)
	if err != nil {
		return errorResponse("", fmt.Errorf("invalid request: %w", err))
	}

	result, err := conn.engine.Execute(s.ctx, request.Query)
	if err != nil {
		return errorResponse("", err)
	}
	return resultResponse(result)
}

func resultResponse(result db.Result) Response {
	switch r := result.(type) {
	case db.QueryResult:
		data, _ := json.Marshal(QueryResponse{
			Columns:     r.Columns,
			Data:        r.Data,
			RecordsRead: r.RecordsRead,
			TimeMs:      r.ExecutionTimeSec * 1000,
		})
		return Response{Success: true, Type: "query", Result: data}

	case db.CommandResult:
		commands := r.Commands
		if commands == nil {
			commands = []string{}
		}
		data, _ := json.Marshal(CommandResponse{
			Statement: r.Statement,
			Target:    r.Target,
			QueryID:   r.QueryID,
			Commands:  commands,
			TimeMs:    r.ExecutionTimeSec * 1000,
		})
		return Response{Success: true, Type: "command", Result: data}

	default:
		return Response{Success: true, Type: "unknown"}
	}
}
