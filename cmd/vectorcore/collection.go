package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	vc "github.com/nullvector/vectorcore"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage collections",
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		dimension, _ := cmd.Flags().GetInt("dimension")
		indexType, _ := cmd.Flags().GetString("index")

		e, s := mustEngine()
		defer closeEngine(e, s)

		ctx := context.Background()
		id, err := e.CreateCollection(ctx, name, dimension, vc.IndexType(indexType), nil)
		if err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
		if err := persistCollection(ctx, e, s, id); err != nil {
			return err
		}

		fmt.Printf("collection %q created (id=%s, dimension=%d)\n", name, id, dimension)
		return nil
	},
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, s := mustEngine()
		defer closeEngine(e, s)

		ctx := context.Background()
		ids, err := s.ListCollectionIDs(ctx)
		if err != nil {
			return fmt.Errorf("list collections: %w", err)
		}

		var collections []vc.Collection
		for _, id := range ids {
			if err := restoreCollection(ctx, e, s, id); err != nil {
				continue
			}
			c, err := e.GetCollection(ctx, id)
			if err != nil {
				continue
			}
			collections = append(collections, c)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(collections, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("collections (%d):\n", len(collections))
		for _, c := range collections {
			fmt.Printf("  %s  %-20s dim=%-4d index=%-8s data_version=%d index_version=%d\n",
				c.ID, c.Name, c.Dimension, c.DefaultIndexType, c.DataVersion, c.IndexVersion)
		}
		return nil
	},
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUUID(args[0])
		if err != nil {
			return err
		}

		e, s := mustEngine()
		defer closeEngine(e, s)

		ctx := context.Background()
		if err := restoreCollection(ctx, e, s, id); err != nil {
			return err
		}
		if err := e.DeleteCollection(ctx, id); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
		if err := s.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
		fmt.Printf("collection %s deleted\n", id)
		return nil
	},
}
