package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	stacclient "github.com/robert-malhotra/go-stac-api/pkg/client"
)

func newSearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search items across collections",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "collections", Usage: "Restrict to these collections"},
			&cli.StringSliceFlag{Name: "ids", Usage: "Item ids, overrides every other filter"},
			&cli.StringFlag{Name: "bbox", Usage: "minx,miny,maxx,maxy"},
			&cli.StringFlag{Name: "datetime", Usage: "Instant or interval, e.g. 2020-01-01T00:00:00Z/.."},
			&cli.IntFlag{Name: "limit", Usage: "Page size requested from the server"},
			&cli.BoolFlag{Name: "post", Usage: "Send the search as POST"},
		},
		Action: searchAction,
	}
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	if err := expectArgs(cmd, 0, ""); err != nil {
		return err
	}
	params := stacclient.SearchParams{
		Collections: cmd.StringSlice("collections"),
		IDs:         cmd.StringSlice("ids"),
		Datetime:    cmd.String("datetime"),
	}
	if v := cmd.String("bbox"); v != "" {
		bbox, err := parseBbox(v)
		if err != nil {
			return err
		}
		params.BBox = bbox
	}
	if v := cmd.Int("limit"); v > 0 {
		params.Limit = &v
	}

	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}
	seq := client.Search(ctx, params)
	if cmd.Bool("post") {
		seq = client.SearchPost(ctx, params)
	}
	entries, err := collectForCLI(seq, marshalItem)
	if err != nil {
		return err
	}
	return printJSONArray(stdout(cmd), entries)
}

func parseBbox(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must have 4 values, got %d", len(parts))
	}
	out := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bbox value %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
