package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	vc "github.com/nullvector/vectorcore"
	"github.com/nullvector/vectorcore/pkg/embed"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage records within a group",
}

var recordInsertCmd = &cobra.Command{
	Use:   "insert <collection-id> <group-id>",
	Short: "Insert a record; supply --vector, or --text to embed it locally",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collectionID, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		groupID, err := parseUUID(args[1])
		if err != nil {
			return err
		}

		text, _ := cmd.Flags().GetString("text")
		vectorStr, _ := cmd.Flags().GetString("vector")
		author, _ := cmd.Flags().GetString("author")
		source, _ := cmd.Flags().GetString("source")
		tags, _ := cmd.Flags().GetStringSlice("tags")

		e, s := mustEngine()
		defer closeEngine(e, s)

		ctx := context.Background()
		if err := restoreCollection(ctx, e, s, collectionID); err != nil {
			return err
		}

		var vector []float32
		if vectorStr != "" {
			vector, err = parseVector(vectorStr)
			if err != nil {
				return err
			}
		} else if text != "" {
			collection, err := e.GetCollection(ctx, collectionID)
			if err != nil {
				return fmt.Errorf("resolve collection dimension: %w", err)
			}
			vector, err = embed.NewHashEmbedder(collection.Dimension).Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("embed text: %w", err)
			}
		} else {
			return fmt.Errorf("one of --vector or --text is required")
		}

		id, err := e.InsertRecord(ctx, collectionID, groupID, text, vector, author, source, tags, nil)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		if err := persistCollection(ctx, e, s, collectionID); err != nil {
			return err
		}

		fmt.Printf("record inserted (id=%s)\n", id)
		return nil
	},
}

var recordGetCmd = &cobra.Command{
	Use:   "get <collection-id> <record-id>",
	Short: "Get a record by id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collectionID, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		recordID, err := parseUUID(args[1])
		if err != nil {
			return err
		}

		e, s := mustEngine()
		defer closeEngine(e, s)

		ctx := context.Background()
		if err := restoreCollection(ctx, e, s, collectionID); err != nil {
			return err
		}

		rec, err := e.GetRecord(ctx, collectionID, recordID)
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}

		data, _ := json.MarshalIndent(rec, "", "  ")
		fmt.Println(string(data))
		return nil
	},
}

var recordListCmd = &cobra.Command{
	Use:   "list <collection-id>",
	Short: "List records in a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collectionID, err := parseUUID(args[0])
		if err != nil {
			return err
		}

		e, s := mustEngine()
		defer closeEngine(e, s)

		ctx := context.Background()
		if err := restoreCollection(ctx, e, s, collectionID); err != nil {
			return err
		}

		records, err := e.ListRecords(ctx, collectionID, vc.Filter{})
		if err != nil {
			return fmt.Errorf("list records: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(records, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("records (%d):\n", len(records))
		for _, r := range records {
			fmt.Printf("  %s  group=%s  %q\n", r.ID, r.GroupID, r.Text)
			if verbose {
				fmt.Printf("      author=%s source=%s tags=%v\n", r.Author, r.Source, r.Tags)
			}
		}
		return nil
	},
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete <collection-id> <record-id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collectionID, err := parseUUID(args[0])
		if err != nil {
			return err
		}
		recordID, err := parseUUID(args[1])
		if err != nil {
			return err
		}

		e, s := mustEngine()
		defer closeEngine(e, s)

		ctx := context.Background()
		if err := restoreCollection(ctx, e, s, collectionID); err != nil {
			return err
		}

		existed, err := e.DeleteRecord(ctx, collectionID, recordID)
		if err != nil {
			return fmt.Errorf("delete record: %w", err)
		}
		if err := persistCollection(ctx, e, s, collectionID); err != nil {
			return err
		}

		if existed {
			fmt.Printf("record %s deleted\n", recordID)
		} else {
			fmt.Printf("record %s not found\n", recordID)
		}
		return nil
	},
}
