package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexd/peercred/pkg/peercred"
)

var (
	socketPath string
	codecName  string
	pretty     bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:     "credctl",
	Short:   "CLI for the credd identity daemon",
	Version: "0.1.0",
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Health check",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, client *peercred.Client) error {
			if err := client.Ping(ctx); err != nil {
				return err
			}
			return printResult(map[string]string{"message": "pong"})
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, client *peercred.Client) error {
			status, err := client.Status(ctx)
			if err != nil {
				return err
			}
			return printResult(status)
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show your identity as the daemon's kernel reports it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, client *peercred.Client) error {
			ident, err := client.Whoami(ctx)
			if err != nil {
				return err
			}
			return printResult(ident)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", peercred.DefaultSocketPath(), "socket path")
	rootCmd.PersistentFlags().StringVar(&codecName, "codec", "msgpack", "wire codec (msgpack or json)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "pretty-print JSON output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func withClient(fn func(context.Context, *peercred.Client) error) error {
	client, err := peercred.Dial(peercred.ClientConfig{
		SocketPath: socketPath,
		Codec:      peercred.CodecType(codecName),
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return fn(ctx, client)
}

func printResult(v interface{}) error {
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
