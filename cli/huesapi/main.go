package main

import (
	"os"

	servecmder "github.com/papercomputeco/hues/cmd/hues/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "huesapi"
	cmd.SilenceUsage = true
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .hues/ directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
