package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/schoolrecords/schoolrecords/internal/cli"
	"github.com/schoolrecords/schoolrecords/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd := cli.NewRootCommand(os.Stdout, cli.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: date,
	})
	err := cmd.Execute()
	logging.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var withExitCode interface{ ExitCode() int }
		if errors.As(err, &withExitCode) {
			os.Exit(withExitCode.ExitCode())
		}
		os.Exit(1)
	}
}
