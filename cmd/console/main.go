package main

import (
	"os"

	"github.com/jrsteele09/go-lawfirm-console/cli"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
