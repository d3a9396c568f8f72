package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cortexd/peercred/internal/daemon"
	"github.com/cortexd/peercred/pkg/peercred"
)

var (
	configPath string
	socketPath string
)

var rootCmd = &cobra.Command{
	Use:   "credd",
	Short: "credd - local identity daemon backed by kernel peer credentials",
	Long: `credd answers ping, status and whoami requests over a Unix domain
socket. whoami reports the caller's process id, user id and group id as
the kernel recorded them at connection time, so local services can
identify their callers without exchanging secrets.`,
	Version: "0.1.0",
	RunE:    runDaemon,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&socketPath, "socket", "", "socket path (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := peercred.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if socketPath != "" {
		cfg.Socket.Dir = filepath.Dir(socketPath)
		cfg.Socket.Name = filepath.Base(socketPath)
	}

	logger := peercred.NewLogger(cfg.Logging)

	codec, err := peercred.NewCodec(peercred.CodecType(cfg.Protocol.Codec))
	if err != nil {
		return err
	}

	srv := daemon.New(daemon.Config{
		Socket:          cfg.Socket,
		Policy:          cfg.Policy.ToPolicy(),
		Codec:           codec,
		MaxFrameSize:    cfg.Server.MaxFrameSize,
		RequestTimeout:  cfg.Server.RequestTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
