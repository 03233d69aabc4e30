package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/acp-protocol/acp-go/pkg/log"
	"github.com/acp-protocol/acp-go/pkg/service"
	"github.com/acp-protocol/acp-go/pkg/session"
)

// ContentTypePairingTLV8 is the media type of pairing request and response
// bodies.
const ContentTypePairingTLV8 = "application/pairing+tlv8"

// PairingsPath is the pairing-management endpoint path.
const PairingsPath = "/pairings"

// DefaultMaxBodySize bounds the size of a pairing request body.
const DefaultMaxBodySize = 16 * 1024

// DefaultPort is the accessory server's default TCP port.
const DefaultPort = 8473

// PairingsHandler processes one complete pairing request body on behalf of
// a caller and returns the encoded response. Protocol failures travel in
// the response body, never as transport errors.
type PairingsHandler interface {
	HandleRequest(body []byte, caller service.Caller) []byte
}

// A session is the caller the handler authorizes against.
var _ service.Caller = (*session.Session)(nil)

// ServerConfig configures the accessory HTTP server.
type ServerConfig struct {
	// Address to listen on (e.g. ":8473" or "127.0.0.1:8473").
	Address string

	// Pairings handles pairing-management requests.
	Pairings PairingsHandler

	// MaxBodySize bounds request bodies (default: DefaultMaxBodySize).
	MaxBodySize int64

	// Logger for protocol logging (optional).
	Logger log.Logger

	// OnSession is called once per accepted connection with its fresh
	// session, before any request on the connection is served. The
	// verify exchange authenticates the session through this seam.
	OnSession func(s *session.Session)
}

// Server accepts controller connections and serves the pairing endpoints.
//
// Each TCP connection carries one session; requests on the same keep-alive
// connection share it.
type Server struct {
	config   ServerConfig
	logger   log.Logger
	listener net.Listener
	httpSrv  *http.Server
	running  atomic.Bool
}

type sessionContextKey struct{}

// SessionFromContext returns the connection session of an in-flight
// request.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return s, ok
}

// NewServer creates an accessory server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Pairings == nil {
		return nil, fmt.Errorf("pairings handler is required")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxBodySize == 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Server{config: config, logger: logger}, nil
}

// Start begins listening and serving. It returns once the listener is
// established; serving continues in the background until Stop.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("server already running")
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.Address)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc(PairingsPath, s.handlePairings)

	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ConnContext:       s.connContext,
	}

	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Log(log.Event{
				Timestamp: time.Now(),
				Layer:     log.LayerTransport,
				Category:  log.CategoryError,
				Error:     &log.ErrorData{Layer: log.LayerTransport, Message: err.Error()},
			})
		}
	}()
	return nil
}

// Addr returns the bound listener address. Valid after Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down, waiting for in-flight requests up to the
// context deadline.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// connContext attaches a fresh session to each accepted connection.
func (s *Server) connContext(ctx context.Context, c net.Conn) context.Context {
	sess := session.New(c.RemoteAddr().String())
	if s.config.OnSession != nil {
		s.config.OnSession(sess)
	}
	s.logger.Log(log.Event{
		Timestamp:  time.Now(),
		Direction:  log.DirectionIn,
		Layer:      log.LayerTransport,
		Category:   log.CategoryState,
		RemoteAddr: c.RemoteAddr().String(),
		Message:    "connection accepted",
	})
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

func (s *Server) handlePairings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess, ok := SessionFromContext(r.Context())
	if !ok {
		// Only possible when the handler is mounted outside this
		// server; treat as an unauthenticated session.
		sess = session.New(r.RemoteAddr)
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodySize))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.logger.Log(log.Event{
		Timestamp:  time.Now(),
		Direction:  log.DirectionIn,
		Layer:      log.LayerTransport,
		Category:   log.CategoryMessage,
		RemoteAddr: sess.RemoteAddr(),
		Message:    fmt.Sprintf("POST %s (%d bytes)", PairingsPath, len(body)),
	})

	// The endpoint always answers 200: protocol errors are encoded in
	// the TLV body.
	res := s.config.Pairings.HandleRequest(body, sess)
	w.Header().Set("Content-Type", ContentTypePairingTLV8)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res); err != nil {
		s.logger.Log(log.Event{
			Timestamp:  time.Now(),
			Direction:  log.DirectionOut,
			Layer:      log.LayerTransport,
			Category:   log.CategoryError,
			RemoteAddr: sess.RemoteAddr(),
			Error:      &log.ErrorData{Layer: log.LayerTransport, Message: err.Error()},
		})
	}
}
