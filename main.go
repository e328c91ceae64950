// Command mergemania starts the Merge Mania server.
//
// It supports four commands:
//  1. "server" (default) runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" plays a game in the terminal, one command per line
//  4. "validate" checks the configuration files
//
// Flags control host/port, config directory, high score storage, logging,
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

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/mergemania/api"
	"github.com/wricardo/mcp-training/mergemania/game/config"
	"github.com/wricardo/mcp-training/mergemania/game/console"
	"github.com/wricardo/mcp-training/mergemania/game/score"
	"github.com/wricardo/mcp-training/mergemania/game/service"
	"github.com/wricardo/mcp-training/mergemania/game/session"
	"github.com/wricardo/mcp-training/mergemania/transport/mcp"
	"github.com/wricardo/mcp-training/mergemania/transport/websocket"
	"github.com/wricardo/mcp-training/mergemania/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Merge Mania Server"
)

const (
	cleanupInterval = time.Hour
	sessionMaxAge   = 24 * time.Hour
)

// app holds the wired services shared by every command
type app struct {
	configs  *config.Manager
	sessions *session.Manager
	scores   score.Store
	game     service.GameService
}

// initializeServices wires session/config managers, the high score store and the game service.
func initializeServices(configDir, highScoreDSN string) (*app, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	scores, err := score.Open(highScoreDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open high score store %s: %w", highScoreDSN, err)
	}

	sessionManager := session.NewManager()

	return &app{
		configs:  configManager,
		sessions: sessionManager,
		scores:   scores,
		game:     service.NewGameService(sessionManager, configManager, scores),
	}, nil
}

func (a *app) Close() error {
	return a.scores.Close()
}

// setupLogging configures the global zerolog logger. Logs always go to stderr so
// stdout stays free for the MCP stdio transport.
func setupLogging(level string, debug bool) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	output := io.Writer(os.Stderr)
	if debug {
		lvl = zerolog.DebugLevel
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "mergemania",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "highscore-dsn",
				Value:   "data/highscores.json",
				Usage:   "high score storage: a JSON file, or a .db/.sqlite file or sqlite:path for SQLite",
				Sources: cli.EnvVars("HIGHSCORE_DSN"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging with human readable output",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, setupLogging(cmd.String("log-level"), cmd.Bool("debug"))
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run MCP stdio server with internal HTTP server",
				Action:  runStdioMCP,
			},
			{
				Name:  "play",
				Usage: "play a game in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "configuration id, the default configuration when empty",
					},
				},
				Action: runPlay,
			},
			{
				Name:   "validate",
				Usage:  "validate the configuration files",
				Action: runValidate,
			},
		},
	}
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Msg("error loading .env file")
		}
	} else {
		log.Info().Msg("loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

// newRouter combines the REST API with the /mcp endpoint
func newRouter(gameService service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(gameService, hub))
	mainRouter.Handle("/mcp", mcpHandler(mcpClient.GetMCPServer()))
	return mainRouter
}

// mcpHandler answers one JSON-RPC message per POST request
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
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
			// notifications have no response
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// runServer starts the HTTP server with REST API, WebSocket hub, and the /mcp endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	a, err := initializeServices(cmd.String("config-dir"), cmd.String("highscore-dsn"))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)
	go a.sessions.RunCleanup(ctx, cleanupInterval, sessionMaxAge)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	handler := newRouter(a.game, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("version", Version).Str("config_dir", cmd.String("config-dir")).
		Str("highscores", cmd.String("highscore-dsn")).Msgf("starting %s", AppName)

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().Str("addr", addr).
			Str("api", "http://"+addr+"/api").
			Str("websocket", "ws://"+addr+"/ws?session=<session_id>").
			Str("mcp", "http://"+addr+"/mcp").
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-serverErr:
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Info().Str("url", ngrokURL).
		Str("api", ngrokURL+"/api").
		Str("mcp", ngrokURL+"/mcp").
		Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// findAPI returns baseURL when a Merge Mania API answers its health check there
func findAPI(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
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

// startInternalServer serves the API on a random loopback port and returns its base URL
func startInternalServer(ctx context.Context, gameService service.GameService) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()

	return "http://" + listener.Addr().String(), httpServer, nil
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening on
// host:port; otherwise it starts an internal HTTP API on a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	externalURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), cmd.Int("port"))
	log.Info().Str("url", externalURL).Msg("checking for external API server")

	baseURL := externalURL
	if !findAPI(ctx, externalURL) {
		a, err := initializeServices(cmd.String("config-dir"), cmd.String("highscore-dsn"))
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.sessions.RunCleanup(ctx, cleanupInterval, sessionMaxAge)

		internalURL, httpServer, err := startInternalServer(ctx, a.game)
		if err != nil {
			return err
		}
		defer httpServer.Close()

		baseURL = internalURL
		log.Info().Str("url", baseURL).Msg("no external API server found, started internal HTTP server")
	} else {
		log.Info().Str("url", baseURL).Msg("using external API server")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runPlay plays one session in the terminal and persists its high score
func runPlay(ctx context.Context, cmd *cli.Command) error {
	a, err := initializeServices(cmd.String("config-dir"), cmd.String("highscore-dsn"))
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := a.game.CreateSession(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	sess, err := a.sessions.Get(info.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "%s: %s\n", sess.Config.Name, sess.Config.Description)
	if err := console.Play(cmd.Root().Reader, cmd.Root().Writer, sess.Engine); err != nil {
		return err
	}

	if err := a.scores.Put(ctx, info.ConfigName, sess.Engine.GetHighScore()); err != nil {
		return fmt.Errorf("failed to save high score: %w", err)
	}
	return nil
}

// runValidate checks every configuration file and fails when one is invalid
func runValidate(ctx context.Context, cmd *cli.Command) error {
	results, err := validate.Dir(cmd.String("config-dir"))
	if err != nil {
		return err
	}
	if !validate.Report(cmd.Root().Writer, results) {
		return errors.New("some configurations have errors")
	}
	return nil
}
