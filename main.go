// Command game2048 starts the 2048 game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket updates and an /mcp endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the variant directory, logging, session expiry
// and optional ngrok tunneling for easy external access during development.
// Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/inconshreveable/log15/v3"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/game2048/api"
	"github.com/wricardo/game2048/game/config"
	"github.com/wricardo/game2048/game/service"
	"github.com/wricardo/game2048/game/session"
	"github.com/wricardo/game2048/internal/logging"
	"github.com/wricardo/game2048/transport/mcp"
	"github.com/wricardo/game2048/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "2048 Game Server"
)

// externalAPIURL is probed by stdio mode before it starts its own API.
const externalAPIURL = "http://localhost:8080"

// options is the resolved command line.
type options struct {
	Host            string
	Port            int
	ConfigDir       string
	Debug           bool
	LogJSON         bool
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	Ngrok           bool
	NgrokAuth       string
	NgrokDomain     string
}

func main() {
	// .env is optional; values already in the environment win.
	envErr := godotenv.Load()

	cmd := newCommand(envErr)
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// newCommand builds the CLI. envErr is the result of loading .env and is
// only reported once logging is configured.
func newCommand(envErr error) *cli.Command {
	serve := func(run func(context.Context, options, log15.Logger) error) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			opts := optionsFromCommand(cmd)
			logger := logging.New(logging.Options{Debug: opts.Debug, JSON: opts.LogJSON, Output: os.Stderr})

			switch {
			case envErr == nil:
				logger.Debug("loaded environment from .env")
			case !errors.Is(envErr, os.ErrNotExist):
				logger.Warn("could not load .env file", "err", envErr)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, opts, logger)
		}
	}

	return &cli.Command{
		Name:    "game2048",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing game variant files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "log-json",
				Usage:   "Write logs as JSON",
				Sources: cli.EnvVars("LOG_JSON"),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Value:   24 * time.Hour,
				Usage:   "Remove sessions not accessed for this long",
				Sources: cli.EnvVars("SESSION_TTL"),
			},
			&cli.DurationFlag{
				Name:    "cleanup-interval",
				Value:   time.Hour,
				Usage:   "How often expired sessions are removed",
				Sources: cli.EnvVars("CLEANUP_INTERVAL"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  serve(runHTTPServer),
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  serve(runStdioMCP),
			},
		},
		Action: serve(runHTTPServer),
	}
}

func optionsFromCommand(cmd *cli.Command) options {
	return options{
		Host:            cmd.String("host"),
		Port:            int(cmd.Int("port")),
		ConfigDir:       cmd.String("config-dir"),
		Debug:           cmd.Bool("debug"),
		LogJSON:         cmd.Bool("log-json"),
		SessionTTL:      cmd.Duration("session-ttl"),
		CleanupInterval: cmd.Duration("cleanup-interval"),
		Ngrok:           cmd.Bool("ngrok"),
		NgrokAuth:       cmd.String("ngrok-auth"),
		NgrokDomain:     cmd.String("ngrok-domain"),
	}
}

// services holds everything one API instance needs.
type services struct {
	logger   log15.Logger
	sessions *session.Manager
	configs  *config.Manager
	game     service.GameService
	hub      *websocket.Hub
}

// initializeServices wires the session and config managers, the game service
// and the websocket hub.
func initializeServices(opts options, logger log15.Logger) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir, config.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager(session.WithLogger(logger))

	return &services{
		logger:   logger,
		sessions: sessionManager,
		configs:  configManager,
		game:     service.NewGameService(sessionManager, configManager, service.WithLogger(logger)),
		hub:      websocket.NewHub(logger),
	}, nil
}

// start runs the background loops until ctx is done.
func (s *services) start(ctx context.Context, opts options) {
	go s.hub.Run(ctx)
	if opts.SessionTTL > 0 && opts.CleanupInterval > 0 {
		go sessionCleanupRoutine(ctx, s.sessions, opts.CleanupInterval, opts.SessionTTL, s.logger)
	}
}

// handler mounts the REST API at the root and the MCP endpoint at /mcp.
// The MCP client calls back into the API at apiURL.
func (s *services) handler(apiURL string) http.Handler {
	mcpClient := mcp.NewClient(apiURL, s.logger)

	mux := http.NewServeMux()
	mux.Handle("/", api.NewServer(s.game, s.hub, s.logger))
	mux.Handle("/mcp", mcpHandler(mcpClient.GetMCPServer(), s.logger))
	return mux
}

// mcpHandler serves single JSON-RPC messages over HTTP POST.
func mcpHandler(mcpServer *server.MCPServer, logger log15.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// notifications have no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			logger.Error("failed to marshal mcp response", "err", err)
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// loopbackURL is the address local clients use to reach a server bound to host:port.
func loopbackURL(host string, port int) string {
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, fmt.Sprint(port))
}

// runHTTPServer serves the REST API, websocket hub and /mcp endpoint until ctx
// is cancelled. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, opts options, logger log15.Logger) error {
	logger.Info("starting", "app", AppName, "version", Version, "mode", "server")

	svc, err := initializeServices(opts, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	svc.start(ctx, opts)

	addr := net.JoinHostPort(opts.Host, fmt.Sprint(opts.Port))
	handler := svc.handler(loopbackURL(opts.Host, opts.Port))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening", "addr", addr)
		logger.Info("endpoints",
			"api", fmt.Sprintf("http://%s/api", addr),
			"ws", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	if opts.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runNgrokTunnel(ctx, opts, handler, logger); err != nil {
				logger.Error("ngrok tunnel failed", "err", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-serveErr:
		logger.Error("HTTP server failed", "err", runErr)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}

	wg.Wait()
	logger.Info("server stopped")
	return runErr
}

// runNgrokTunnel exposes handler through ngrok until ctx is done.
func runNgrokTunnel(ctx context.Context, opts options, handler http.Handler, logger log15.Logger) error {
	if opts.NgrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return nil
	}

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		logger.Info("using custom ngrok domain", "domain", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	logger.Info("starting ngrok tunnel")
	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(opts.NgrokAuth),
	)
	if err != nil {
		return fmt.Errorf("failed to start ngrok tunnel: %w", err)
	}

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established", "url", ngrokURL,
		"api", ngrokURL+"/api", "mcp", ngrokURL+"/mcp")

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", "err", err)
		}
	}()

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("ngrok tunnel closed")
	return nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, ttl time.Duration, logger log15.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logger.Info("cleaned up expired sessions", "removed", removed)
			}
		}
	}
}

// externalAPIAvailable reports whether an API server answers at baseURL.
func externalAPIAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the API on a random loopback port and returns its URL.
func startInternalAPI(ctx context.Context, opts options, logger log15.Logger) (string, *http.Server, error) {
	svc, err := initializeServices(opts, logger)
	if err != nil {
		return "", nil, err
	}
	svc.start(ctx, opts)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}
	baseURL := "http://" + listener.Addr().String()

	httpServer := &http.Server{Handler: svc.handler(baseURL)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("internal HTTP server error", "err", err)
		}
	}()

	logger.Info("internal HTTP server started", "url", baseURL)
	return baseURL, httpServer, nil
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening on
// localhost:8080 and otherwise starts an internal one.
func runStdioMCP(ctx context.Context, opts options, logger log15.Logger) error {
	logger.Info("starting", "app", AppName, "version", Version, "mode", "stdio-mcp")

	baseURL := externalAPIURL
	if externalAPIAvailable(ctx, externalAPIURL) {
		logger.Info("external API server found, using it for MCP", "url", externalAPIURL)
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		var internal *http.Server
		var err error
		baseURL, internal, err = startInternalAPI(ctx, opts, logger)
		if err != nil {
			return err
		}
		defer internal.Close()
	}

	mcpClient := mcp.NewClient(baseURL, logger)
	logger.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
