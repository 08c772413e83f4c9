// Command gamerooms runs the multiplayer game room server.
//
// The default action serves WebSocket play at /ws, the read-only REST API at
// /api, and the MCP endpoint at /mcp. The "mcp" subcommand runs the MCP tool
// server over stdio against a running instance.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/gamerooms/api"
	"github.com/wricardo/mcp-training/gamerooms/game/config"
	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/engine/fiveinrow"
	"github.com/wricardo/mcp-training/gamerooms/game/engine/race"
	"github.com/wricardo/mcp-training/gamerooms/game/engine/xiangqi"
	"github.com/wricardo/mcp-training/gamerooms/game/events"
	"github.com/wricardo/mcp-training/gamerooms/game/players"
	"github.com/wricardo/mcp-training/gamerooms/game/service"
	"github.com/wricardo/mcp-training/gamerooms/game/session"
	"github.com/wricardo/mcp-training/gamerooms/transport/mcp"
	"github.com/wricardo/mcp-training/gamerooms/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Game Rooms Server"
)

const (
	shutdownTimeout = 10 * time.Second
	eventPrefix     = "gamerooms"
)

// options holds the resolved serve flags
type options struct {
	Host           string
	Port           int
	ConfigDir      string
	DefaultMap     string
	StaticDir      string
	LogLevel       string
	LogFormat      string
	GracePeriod    time.Duration
	RaceMaxPlayers int
	NATSURL        string
	Ngrok          bool
	NgrokDomain    string
	NgrokAuthToken string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

func main() {
	// Missing .env is fine
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "gamerooms",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing race map presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "default-map", Value: race.DefaultPreset, Usage: "Race preset used when ready carries no map", Sources: cli.EnvVars("DEFAULT_MAP")},
			&cli.StringFlag{Name: "static-dir", Usage: "Directory of static files served at /", Sources: cli.EnvVars("STATIC_DIR")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.StringFlag{Name: "log-format", Value: "json", Usage: "json or console", Sources: cli.EnvVars("LOG_FORMAT")},
			&cli.DurationFlag{Name: "grace-period", Value: session.DefaultGracePeriod, Usage: "How long an empty room lives", Sources: cli.EnvVars("ROOM_GRACE_PERIOD")},
			&cli.IntFlag{Name: "race-max-players", Value: race.DefaultMaxPlayers, Usage: "Seats per race room", Sources: cli.EnvVars("RACE_MAX_PLAYERS")},
			&cli.StringFlag{Name: "nats-url", Usage: "Publish room events to this NATS server", Sources: cli.EnvVars("NATS_URL")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Expose the server through an ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
			&cli.StringFlag{Name: "ngrok-authtoken", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return serve(ctx, optionsFrom(cmd))
		},
		Commands: []*cli.Command{
			{
				Name:  "mcp",
				Usage: "Run the MCP tool server over stdio",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "Base URL of a running server", Sources: cli.EnvVars("API_URL")},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCP(cmd.String("api-url"))
				},
			},
		},
	}
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		Host:           cmd.String("host"),
		Port:           cmd.Int("port"),
		ConfigDir:      cmd.String("config-dir"),
		DefaultMap:     cmd.String("default-map"),
		StaticDir:      cmd.String("static-dir"),
		LogLevel:       cmd.String("log-level"),
		LogFormat:      cmd.String("log-format"),
		GracePeriod:    cmd.Duration("grace-period"),
		RaceMaxPlayers: cmd.Int("race-max-players"),
		NATSURL:        cmd.String("nats-url"),
		Ngrok:          cmd.Bool("ngrok"),
		NgrokDomain:    cmd.String("ngrok-domain"),
		NgrokAuthToken: cmd.String("ngrok-authtoken"),
	}
}

// newLogger builds a zap logger from level and format names
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q (use json or console)", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// application is the wired server
type application struct {
	log       *zap.Logger
	presets   *config.Manager
	rooms     *session.Directory
	registry  *players.Registry
	hub       *websocket.Hub
	publisher events.Publisher
	handler   http.Handler
}

// newApplication wires presets, engines, rooms, the dispatcher and the HTTP
// surface. It starts nothing.
func newApplication(opts options, log *zap.Logger) (*application, error) {
	presets, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if opts.DefaultMap != "" {
		if err := presets.SetDefault(opts.DefaultMap); err != nil {
			return nil, fmt.Errorf("default map %q: %w", opts.DefaultMap, err)
		}
	}

	var publisher events.Publisher = events.Nop{}
	if opts.NATSURL != "" {
		nc, err := events.NewNATSPublisher(opts.NATSURL, eventPrefix, log.Named("events"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher = nc
	}

	factories := map[engine.GameType]engine.Factory{
		engine.FiveInRow: fiveinrow.NewEngine,
		engine.Xiangqi:   xiangqi.NewEngine,
		engine.Race: race.NewFactory(race.Options{
			Presets:    presets,
			MaxPlayers: opts.RaceMaxPlayers,
			DefaultMap: presets.DefaultName(),
		}),
	}

	rooms := session.NewDirectory(factories,
		session.WithGracePeriod(opts.GracePeriod),
		session.WithLogger(log.Named("rooms")),
		session.WithPublisher(publisher),
	)
	registry := players.NewRegistry()
	dispatcher := service.NewDispatcher(rooms, registry,
		service.WithLogger(log.Named("dispatcher")),
		service.WithPublisher(publisher),
		service.WithPresets(presets),
	)
	hub := websocket.NewHub(dispatcher, log.Named("ws"))

	// The MCP tools read the REST API of this same process
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", loopback(opts)))

	handler := api.NewServer(dispatcher, http.HandlerFunc(hub.ServeWS),
		api.WithLogger(log.Named("http")),
		api.WithStaticDir(opts.StaticDir),
		api.WithMCP(mcpClient.Handler()),
	)

	return &application{
		log:       log,
		presets:   presets,
		rooms:     rooms,
		registry:  registry,
		hub:       hub,
		publisher: publisher,
		handler:   handler,
	}, nil
}

// loopback is the address the in-process MCP client dials
func loopback(opts options) string {
	host := opts.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("%s:%d", host, opts.Port)
}

// close releases rooms and the event publisher
func (a *application) close() {
	a.rooms.Close()
	if err := a.publisher.Close(); err != nil {
		a.log.Warn("event publisher close failed", zap.Error(err))
	}
}

// serve runs the HTTP server, the hub and the optional ngrok tunnel until ctx
// is cancelled
func serve(ctx context.Context, opts options) error {
	log, err := newLogger(opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	app, err := newApplication(opts, log)
	if err != nil {
		return err
	}

	log.Info("starting",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("addr", opts.addr()),
		zap.String("configDir", opts.ConfigDir),
		zap.Duration("gracePeriod", opts.GracePeriod),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.hub.Run(gctx)
		return nil
	})

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	g.Go(func() error {
		reloadPresets(gctx, app.presets, hup, log)
		return nil
	})

	httpServer := &http.Server{
		Addr:        opts.addr(),
		Handler:     app.handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	g.Go(func() error {
		log.Info("HTTP server listening",
			zap.String("api", fmt.Sprintf("http://%s/api", opts.addr())),
			zap.String("ws", fmt.Sprintf("ws://%s/ws", opts.addr())),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", opts.addr())),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	var tunnelServer *http.Server
	if opts.Ngrok {
		tunnelServer = &http.Server{Handler: app.handler}
		g.Go(func() error {
			runTunnel(gctx, opts, tunnelServer, log.Named("ngrok"))
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP server shutdown error", zap.Error(err))
		}
		if tunnelServer != nil {
			if err := tunnelServer.Shutdown(shutdownCtx); err != nil {
				log.Warn("ngrok server shutdown error", zap.Error(err))
			}
		}
		app.close()
		return nil
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}

// reloadPresets drops cached presets on every signal so edited files take
// effect for the next round
func reloadPresets(ctx context.Context, presets *config.Manager, signals <-chan os.Signal, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			presets.Refresh()
			log.Info("race presets reloaded")
		}
	}
}

// runTunnel serves srv through an ngrok endpoint. Failures are logged and
// leave the local server running.
func runTunnel(ctx context.Context, opts options, srv *http.Server, log *zap.Logger) {
	if opts.NgrokAuthToken == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-authtoken or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuthToken))
	if err != nil {
		log.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	url := tun.URL()
	log.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("ws", url+"/ws"),
		zap.String("mcp", url+"/mcp"),
	)

	// Shutdown closes the listener
	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("ngrok server error", zap.Error(err))
	}
	log.Info("ngrok tunnel closed")
}

// runStdioMCP serves the MCP tools over stdio against apiURL
func runStdioMCP(apiURL string) error {
	// stdout carries the protocol, so logs go to stderr
	log, err := newLogger("info", "console")
	if err != nil {
		return err
	}
	defer log.Sync()

	probe := &http.Client{Timeout: 2 * time.Second}
	resp, err := probe.Get(apiURL + "/api/health")
	if err != nil {
		log.Warn("API server not reachable, tools will fail until it is up", zap.String("url", apiURL), zap.Error(err))
	} else {
		resp.Body.Close()
	}

	log.Info("MCP stdio server ready", zap.String("api", apiURL))
	return server.ServeStdio(mcp.NewClient(apiURL).GetMCPServer())
}
