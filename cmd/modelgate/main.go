package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modelgate/modelgate/gateway"
	"github.com/modelgate/modelgate/pkg/logger"
)

const longDesc string = `modelgate is a protocol-translating gateway between clients speaking the
OpenAI chat-completions API and an upstream inference server speaking either
Ollama's native API or an OpenAI-compatible one.

The upstream dialect is detected by probing its model listing and cached
briefly. Requests are translated per dialect, responses (unary and SSE
streaming) are translated back. Setting API_KEY enables a static bearer
token check on /v1 routes.

Examples:
  modelgate --listen :8080
  UPSTREAM=localhost API_KEY=secret modelgate
  modelgate --config /etc/modelgate/gateway.toml --debug`

func main() {
	var (
		listenAddr string
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "modelgate",
		Short: "OpenAI-compatible gateway for Ollama upstreams",
		Long:  longDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewLogger(debug)
			defer log.Sync()

			cfg := gateway.DefaultConfig()
			if configPath != "" {
				var err error
				cfg, err = cfg.LoadFile(configPath)
				if err != nil {
					return err
				}
			}
			cfg = cfg.FromEnv()
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}

			g := gateway.New(cfg, log)
			defer g.Close()

			if configPath != "" {
				err := gateway.Watch(cmd.Context(), configPath, log, func(next gateway.Config) {
					g.SetAPIKey(next.APIKey)
				})
				if err != nil {
					log.Warn("config watch unavailable", zap.Error(err))
				}
			}

			return g.Run()
		},
	}

	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", `Address to listen on (default ":8080")`)
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
