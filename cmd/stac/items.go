package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	stac "github.com/planetlabs/go-stac"
	"github.com/urfave/cli/v3"
)

func newItemsCommand() *cli.Command {
	return &cli.Command{
		Name:  "items",
		Usage: "Work with STAC items",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Fetch an item by collection and ID",
				ArgsUsage: "<collection-id> <item-id>",
				Action:    getItemAction,
			},
			{
				Name:      "list",
				Usage:     "List items in a collection",
				ArgsUsage: "<collection-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "interactive",
						Aliases: []string{"i"},
						Usage:   "Prompt between batches of results",
					},
					&cli.StringFlag{Name: "bbox", Usage: "minx,miny,maxx,maxy"},
					&cli.StringFlag{Name: "datetime", Usage: "Instant or interval, e.g. 2020-01-01T00:00:00Z/.."},
					&cli.IntFlag{Name: "limit", Usage: "Page size requested from the server"},
				},
				Action: listItemsAction,
			},
			{
				Name:      "create",
				Usage:     "Create an item from a JSON file (- reads stdin)",
				ArgsUsage: "<collection-id> <file>",
				Action:    createItemAction,
			},
			{
				Name:      "delete",
				Usage:     "Delete an item with its assets",
				ArgsUsage: "<collection-id> <item-id>",
				Action:    deleteItemAction,
			},
		},
	}
}

func getItemAction(ctx context.Context, cmd *cli.Command) error {
	if err := expectArgs(cmd, 2, "collection id and item id"); err != nil {
		return err
	}
	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}
	item, _, err := client.GetItem(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
	if err != nil {
		return err
	}
	summary, err := newItemSummary(item)
	if err != nil {
		return err
	}
	return printJSON(stdout(cmd), summary)
}

func marshalItem(item *stac.Item) ([]byte, error) {
	summary, err := newItemSummary(item)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(summary, "", "  ")
}

func listItemsAction(ctx context.Context, cmd *cli.Command) error {
	if err := expectArgs(cmd, 1, "collection id"); err != nil {
		return err
	}
	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}

	query := url.Values{}
	if v := cmd.String("bbox"); v != "" {
		query.Set("bbox", v)
	}
	if v := cmd.String("datetime"); v != "" {
		query.Set("datetime", v)
	}
	if v := cmd.Int("limit"); v > 0 {
		query.Set("limit", strconv.Itoa(v))
	}
	seq := client.GetItemsWithQuery(ctx, cmd.Args().First(), query)

	if cmd.Bool("interactive") {
		in := cmd.Root().Reader
		if in == nil {
			in = os.Stdin
		}
		return printJSONArrayInteractive(stdout(cmd), in, seq, marshalItem)
	}
	entries, err := collectForCLI(seq, marshalItem)
	if err != nil {
		return err
	}
	return printJSONArray(stdout(cmd), entries)
}

func createItemAction(ctx context.Context, cmd *cli.Command) error {
	if err := expectArgs(cmd, 2, "collection id and file"); err != nil {
		return err
	}
	payload, err := readPayload(cmd.Args().Get(1), cmd.Root().Reader)
	if err != nil {
		return err
	}
	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}
	item, err := client.CreateItem(ctx, cmd.Args().Get(0), payload)
	if err != nil {
		return err
	}
	summary, err := newItemSummary(item)
	if err != nil {
		return err
	}
	return printJSON(stdout(cmd), summary)
}

func deleteItemAction(ctx context.Context, cmd *cli.Command) error {
	if err := expectArgs(cmd, 2, "collection id and item id"); err != nil {
		return err
	}
	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}
	collection, id := cmd.Args().Get(0), cmd.Args().Get(1)
	if err := client.DeleteItem(ctx, collection, id); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout(cmd), "item %s/%s deleted\n", collection, id)
	return err
}
