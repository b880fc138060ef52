package main

import (
	"fmt"
	"os"

	"github.com/dukemzone/kpi-portal/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
