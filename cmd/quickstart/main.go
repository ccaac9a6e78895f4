package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	_ "github.com/joho/godotenv/autoload"
	"github.com/jrsteele09/go-oauth-quickstart/internal/config"
	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/server"
	"github.com/jrsteele09/go-oauth-quickstart/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "quickstart",
		Usage: "OAuth quickstart token server",
		Commands: []*cli.Command{
			flowCommand(config.FlowDevice, "authorize this device, then serve token refreshes"),
			flowCommand(config.FlowJWT, "exchange signed assertions for tokens on demand"),
			flowCommand(config.FlowPKCE, "browser authorization code flow with PKCE"),
			flowCommand(config.FlowWeb, "browser authorization code flow with a client secret"),
		},
	}

	configureLogging(config.EnvVars{}.GetEnv())
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("Error running quickstart")
	}
	log.Info().Msg("Server stopped")
}

func flowCommand(flow config.Flow, usage string) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "OAuth app config file (JSON or YAML)",
			Value:   config.DefaultConfigPath,
			EnvVars: []string{flow.ConfigPathEnvVar()},
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "interface to listen on (default from HOST)",
		},
		&cli.StringFlag{
			Name:  "port",
			Usage: "port to listen on (default from PORT)",
		},
	}
	if flow == config.FlowDevice || flow == config.FlowJWT {
		flags = append(flags, &cli.BoolFlag{
			Name:  "probe",
			Usage: "call the server's own token endpoint once it is up",
		})
	}

	return &cli.Command{
		Name:  string(flow),
		Usage: usage,
		Flags: flags,
		Action: func(cctx *cli.Context) error {
			return run(cctx, flow)
		},
	}
}

func run(cctx *cli.Context, flow config.Flow) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	loader := config.NewLoader(cctx.String("config"))
	app, err := loader.Load()
	if err != nil {
		return err
	}
	if err := app.Validate(flow); err != nil {
		return apperrors.Wrapf(err, "config file %s", loader.Path())
	}

	c := config.New(app, config.WithHost(cctx.String("host")), config.WithPort(cctx.String("port")))
	configureLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fail before any user interaction if the port is taken
	listener, err := net.Listen("tcp", c.GetAddr())
	if err != nil {
		return fmt.Errorf("%w: cannot listen on %s: %v", apperrors.ErrConfig, c.GetAddr(), err)
	}
	defer listener.Close()

	cache := token.NewCache()
	clients, authorizer, err := buildClients(ctx, flow, app, cache)
	if err != nil {
		return err
	}
	if authorizer != nil {
		if err := authorizeDevice(ctx, authorizer, clients); err != nil {
			return err
		}
	}

	handler, err := server.New(c, flow, clients, server.WithTokenCache(cache))
	if err != nil {
		return err
	}
	httpServer := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() { serveErr <- serve(httpServer, listener) }()

	log.Info().
		Str("url", "http://"+listener.Addr().String()).
		Str("api_base", app.CozeAPIBase).
		Str("client_type", app.ClientType).
		Str("client_id", app.ClientID).
		Msg("Server started")

	if cctx.Bool("probe") {
		go probe(ctx, "http://"+listener.Addr().String(), flow)
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return err
	}
	return shutdown(httpServer)
}

func serve(server *http.Server, listener net.Listener) error {
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Serve %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func configureLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
