package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"

	"skirmish/client"
	"skirmish/client/display"
	"skirmish/network"
	"skirmish/server"
	"skirmish/utils"
)

var (
	configPath string
	logLevel   string

	endpoint   string
	playerName string
	offline    bool
	host       bool

	address string
)

var rootCmd = &cobra.Command{
	Use:          "skirmish",
	Short:        "Skirmish - a small multiplayer arena shooter",
	Version:      display.Version(),
	SilenceUsage: true,
	RunE:         runPlay,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Join a server and play",
	RunE:  runPlay,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the development relay server",
	RunE:  runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Skirmish v%s\n", display.Version())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error); overrides the config")

	for _, cmd := range []*cobra.Command{rootCmd, playCmd} {
		cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "websocket endpoint to join; overrides the config")
		cmd.Flags().StringVarP(&playerName, "name", "n", "", "player name; overrides the config")
		cmd.Flags().BoolVar(&offline, "offline", false, "play without connecting")
		cmd.Flags().BoolVar(&host, "host", false, "start a local server and join it")
	}
	serverCmd.Flags().StringVarP(&address, "address", "a", "", "listen address; overrides the config")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the config and installs the default logger. A missing config
// file is only an error when it was asked for explicitly.
func setup(cmd *cobra.Command) (*utils.Config, *slog.Logger, error) {
	cfg, err := utils.ReadTOML(configPath)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		cfg, err = utils.Default(), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		if _, err := utils.ParseLevel(logLevel); err != nil {
			return nil, nil, err
		}
		cfg.Log.Level = logLevel
	}

	logger := utils.NewLogger(cfg.Log.Level, os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if endpoint != "" {
		cfg.Network.Endpoint = endpoint
	}
	if playerName != "" {
		cfg.Network.PlayerName = playerName
	}
	logger.Info("starting skirmish", "version", display.Version())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if host {
		l, err := net.Listen("tcp", cfg.Server.Address)
		if err != nil {
			return fmt.Errorf("host: %w", err)
		}
		go func() {
			if err := server.Serve(ctx, l, cfg.Server, logger.With("component", "server")); err != nil {
				logger.Error("local server stopped", "error", err)
			}
		}()
		cfg.Network.Endpoint = "ws://" + l.Addr().String()
	}

	feed := client.NewFeed(0)
	opts := client.Options{
		Name:           cfg.Network.PlayerName,
		UpdateInterval: cfg.Sync.UpdateInterval(),
		BlendFactor:    cfg.Sync.BlendFactor,
		RespawnDelay:   cfg.Sync.RespawnDelay(),
		Logger:         logger,
	}

	var controller *client.Controller
	if offline {
		controller = client.NewController(nil, feed, opts)
	} else {
		manager := network.NewManager(network.Options{
			MaxReconnectAttempts: cfg.Network.MaxReconnectAttempts,
			ReconnectDelay:       cfg.Network.ReconnectDelay(),
			DialTimeout:          cfg.Network.DialTimeout(),
			Logger:               logger.With("component", "network"),
		})
		controller = client.NewController(manager, feed, opts)
		controller.Attach(manager.Dispatcher)
		manager.OnStatus(controller.HandleStatus)
		if err := manager.Connect(ctx, cfg.Network.Endpoint, cfg.Network.PlayerName); err != nil {
			logger.Warn("playing offline", "error", err)
		}
		defer manager.Disconnect()
	}

	ebiten.SetWindowSize(cfg.UI.Resolution.X, cfg.UI.Resolution.Y)
	ebiten.SetWindowTitle("Skirmish")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(display.NewGame(controller, feed, display.LoadAssets()))
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if address != "" {
		cfg.Server.Address = address
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, cfg.Server, logger)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
