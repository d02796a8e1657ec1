package main

import (
	"os"

	huescmder "github.com/papercomputeco/hues/cmd/hues"
)

func main() {
	cmd := huescmder.NewHuesCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
