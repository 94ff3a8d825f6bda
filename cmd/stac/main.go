// Command stac serves the STAC API and talks to a running instance.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	stacclient "github.com/robert-malhotra/go-stac-api/pkg/client"
)

var (
	baseURLFlag = &cli.StringFlag{
		Name:    "url",
		Aliases: []string{"u"},
		Usage:   "STAC API base URL, e.g. http://localhost:8000/api/stac/v0.9/",
		Sources: cli.EnvVars("STAC_URL"),
	}
	timeoutFlag = &cli.DurationFlag{
		Name:    "timeout",
		Aliases: []string{"t"},
		Usage:   "HTTP client timeout (e.g. 30s, 1m)",
		Value:   30 * time.Second,
	}
	tokenFlag = &cli.StringFlag{
		Name:    "token",
		Usage:   "Write token sent as \"Authorization: Token <token>\"",
		Sources: cli.EnvVars("STAC_TOKEN"),
	}
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "stac",
		Usage: "Serve and interact with the STAC API",
		Flags: []cli.Flag{baseURLFlag, timeoutFlag, tokenFlag},
		Commands: []*cli.Command{
			newServeCommand(),
			newCollectionsCommand(),
			newItemsCommand(),
			newSearchCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func clientFromCommand(cmd *cli.Command) (*stacclient.Client, error) {
	baseURL := cmd.String(baseURLFlag.Name)
	if baseURL == "" {
		return nil, fmt.Errorf("flag --url is required")
	}
	return stacclient.NewClient(baseURL,
		stacclient.WithTimeout(cmd.Duration(timeoutFlag.Name)),
		stacclient.WithToken(cmd.String(tokenFlag.Name)),
	)
}

// stdout is the writer of the root command, os.Stdout unless replaced.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func expectArgs(cmd *cli.Command, n int, names string) error {
	if cmd.Args().Len() != n {
		if n == 0 {
			return fmt.Errorf("no arguments expected")
		}
		return fmt.Errorf("expected %d argument(s): %s", n, names)
	}
	return nil
}
