package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seenimoa/quotechat/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		srv := api.NewServer(cfg.API, api.Deps{
			Chat:     a.chat,
			Resolver: a.resolver,
			Registry: a.registry,
			Logger:   logger.Named("api"),
			Version:  version,
		})
		fmt.Printf("🌐 quotechat API listening on %s\n", cfg.API.Addr())
		return srv.ListenAndServe(cmd.Context(), cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "port override")
}
