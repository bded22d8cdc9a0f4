package commands

import (
	"annbench/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve one adapter over HTTP",
	Long: `Start an HTTP server holding a single adapter. A remote harness constructs,
fits and queries it through the /v1/index routes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := globalConfig
		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		gin.SetMode(gin.ReleaseMode)
		s := server.New()
		defer s.Close()
		return s.Run(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr from config)")
}
