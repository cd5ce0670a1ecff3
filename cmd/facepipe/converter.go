package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/example/face-pipeline/internal/config"
	"github.com/example/face-pipeline/internal/convert"
	"github.com/example/face-pipeline/internal/handlers"
)

var converterOpts struct {
	addr         string
	maxPayloadMB float64
}

var converterCmd = &cobra.Command{
	Use:   "converter",
	Short: "Serve POST /convert (format normalisation)",
	RunE: func(cmd *cobra.Command, args []string) error {
		router := gin.Default()
		handlers.RegisterConverterRoutes(router, convert.NewNormalizer(converterOpts.maxPayloadMB), logger.Named("converter"))
		return serve(cmd.Context(), "converter", converterOpts.addr, router)
	},
}

func init() {
	maxMB, err := config.Float("MAX_PAYLOAD_MB", 5)
	exitOnConfigError(err)

	converterCmd.Flags().StringVar(&converterOpts.addr, "addr", config.Env("LISTEN_ADDR", ":8001"), "Listen address")
	converterCmd.Flags().Float64Var(&converterOpts.maxPayloadMB, "max-payload-mb", maxMB, "Largest accepted base64 payload in MB")
	rootCmd.AddCommand(converterCmd)
}
