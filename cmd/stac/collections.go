package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	stac "github.com/planetlabs/go-stac"
	"github.com/urfave/cli/v3"
)

func newCollectionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "collections",
		Usage: "Work with STAC collections",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Fetch a collection by ID",
				ArgsUsage: "<collection-id>",
				Action:    getCollectionAction,
			},
			{
				Name:   "list",
				Usage:  "List all collections",
				Action: listCollectionsAction,
			},
			{
				Name:      "create",
				Usage:     "Create a collection from a JSON file (- reads stdin)",
				ArgsUsage: "<file>",
				Action:    createCollectionAction,
			},
			{
				Name:      "delete",
				Usage:     "Delete a collection with its items and assets",
				ArgsUsage: "<collection-id>",
				Action:    deleteCollectionAction,
			},
		},
	}
}

func getCollectionAction(ctx context.Context, cmd *cli.Command) error {
	if err := expectArgs(cmd, 1, "collection id"); err != nil {
		return err
	}
	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}
	collection, _, err := client.GetCollection(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	return printJSON(stdout(cmd), newCollectionSummary(collection))
}

func listCollectionsAction(ctx context.Context, cmd *cli.Command) error {
	if err := expectArgs(cmd, 0, ""); err != nil {
		return err
	}
	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}
	entries, err := collectForCLI(client.GetCollections(ctx), func(c *stac.Collection) ([]byte, error) {
		return json.MarshalIndent(newCollectionSummary(c), "", "  ")
	})
	if err != nil {
		return err
	}
	return printJSONArray(stdout(cmd), entries)
}

func createCollectionAction(ctx context.Context, cmd *cli.Command) error {
	if err := expectArgs(cmd, 1, "file"); err != nil {
		return err
	}
	payload, err := readPayload(cmd.Args().First(), cmd.Root().Reader)
	if err != nil {
		return err
	}
	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}
	collection, err := client.CreateCollection(ctx, payload)
	if err != nil {
		return err
	}
	return printJSON(stdout(cmd), newCollectionSummary(collection))
}

func deleteCollectionAction(ctx context.Context, cmd *cli.Command) error {
	if err := expectArgs(cmd, 1, "collection id"); err != nil {
		return err
	}
	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}
	id := cmd.Args().First()
	if err := client.DeleteCollection(ctx, id); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout(cmd), "collection %s deleted\n", id)
	return err
}
