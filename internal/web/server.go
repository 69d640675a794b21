package web

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/net/netutil"
	"golang.org/x/time/rate"

	"github.com/codefionn/rechenschnell/internal/calc"
	"github.com/codefionn/rechenschnell/internal/config"
	"github.com/codefionn/rechenschnell/internal/logger"
	"github.com/codefionn/rechenschnell/internal/session"
)

const (
	authTokenLength = 32
	shutdownTimeout = 5 * time.Second
	pageTitle       = "rechenschnell"
)

// Server represents the web server
type Server struct {
	cfg        config.WebConfig
	authToken  string
	router     *httprouter.Router
	httpServer *http.Server
	sessions   *session.Manager
	hub        *Hub
	api        *apiValidator
	static     *staticAssets
	metrics    *Metrics
	upgrader   websocket.Upgrader
	log        *logger.Logger

	mu     sync.Mutex
	addr   string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewServer creates a new web server
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	token, err := generateAuthToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate auth token: %w", err)
	}

	api, err := newAPIValidator()
	if err != nil {
		return nil, err
	}

	static, err := loadStaticAssets()
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:       cfg.Web,
		authToken: token,
		router:    httprouter.New(),
		api:       api,
		static:    static,
		addr:      cfg.Web.Addr,
		log:       logger.Global().WithPrefix("web"),
	}
	srv.sessions = session.NewManager(session.Options{
		IdleTimeout:   time.Duration(cfg.Web.SessionIdleSeconds) * time.Second,
		MaxSessions:   cfg.Web.MaxSessions,
		EngineOptions: cfg.Engine.EngineOptions(),
		InUse:         func(id string) bool { return srv.hub.HasSession(id) },
		OnEvict:       func(sess *session.Session) { srv.hub.CloseSession(sess.ID) },
	})
	srv.metrics = NewMetrics(srv.sessions.Len)
	srv.hub = NewHub(srv.metrics)
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     sameOrigin,
	}

	srv.setupRoutes()
	return srv, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.authorized(s.handleIndex))
	s.router.GET("/static/*filepath", s.static.handle)
	s.router.GET("/ws", s.authorized(s.handleWebSocket))
	s.router.GET("/health", s.handleHealth)
	s.router.Handler(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.POST("/api/evaluate", s.authorized(s.validated(s.handleEvaluate)))
	s.router.POST("/api/sessions", s.authorized(s.validated(s.handleCreateSession)))
	s.router.GET("/api/sessions/:id", s.authorized(s.validated(s.handleGetSession)))
	s.router.DELETE("/api/sessions/:id", s.authorized(s.validated(s.handleDeleteSession)))
	s.router.POST("/api/sessions/:id/keys", s.authorized(s.validated(s.handleSessionKeys)))
	s.router.GET("/api/openapi.yaml", s.handleOpenAPI)
}

// Handler returns the HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Token returns the auth token clients must present.
func (s *Server) Token() string {
	return s.authToken
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.cancel = cancel
	s.done = done
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.StdLogger(s.log, logger.LevelWarn),
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	go s.hub.Run()
	go s.sessions.Run(ctx)

	go func() {
		defer close(done)
		s.log.Info("Web server listening on %s", ln.Addr())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop stops the web server
func (s *Server) Stop() error {
	s.mu.Lock()
	httpServer, cancel, done := s.httpServer, s.cancel, s.done
	s.httpServer = nil
	s.mu.Unlock()
	if httpServer == nil {
		return nil
	}

	s.log.Info("Stopping web server...")
	cancel()
	s.hub.Stop()

	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	<-done
	return nil
}

// Addr returns the listen address, resolved once Start has run.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// GetURL returns the server URL with auth token
func (s *Server) GetURL() string {
	return fmt.Sprintf("http://%s/?token=%s", s.Addr(), s.authToken)
}

// OpenBrowser opens the default browser to the server URL
func (s *Server) OpenBrowser() error {
	url := s.GetURL()
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// authorized rejects requests without the auth token, given either as the
// token query parameter or as a bearer token.
func (s *Server) authorized(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := r.URL.Query().Get("token")
		if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			token = bearer
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.log.Warn("%s %s rejected: invalid auth token", r.Method, r.URL.Path)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		h(w, r, ps)
	}
}

// handleWebSocket attaches a connection to the session named in the session
// query parameter, or to a new session.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sess, created, err := s.sessions.GetOrCreate(r.URL.Query().Get("session"))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("Failed to upgrade WebSocket: %v", err)
		if created {
			_ = s.sessions.Delete(sess.ID)
		}
		return
	}

	var limiter *rate.Limiter
	if s.cfg.MessagesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.MessagesPerSecond), s.cfg.Burst)
	}

	client := NewClient(s.hub, conn, sess, limiter, s.metrics)
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	s.hub.Send(client, stateMessage(sess.ID, sess.State()))
}

// handleIndex handles the index page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	page := Page(s.authToken, pageTitle, calc.Keypad)
	if err := page.Render(r.Context(), w); err != nil {
		s.log.Error("Failed to render page: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"clients":  s.hub.ClientCount(),
	})
}

// sameOrigin accepts WebSocket upgrades from pages served by this server and
// from clients that send no Origin header.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	host := strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://")
	return host == r.Host
}

// generateAuthToken generates a random auth token
func generateAuthToken() (string, error) {
	bytes := make([]byte, authTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
