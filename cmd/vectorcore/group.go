package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups within a collection",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <collection-id> <title>",
	Short: "Create a group",
	Args:  cobra.ExactArgs(2),
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

		id, err := e.CreateGroup(ctx, collectionID, args[1], nil)
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		if err := persistCollection(ctx, e, s, collectionID); err != nil {
			return err
		}

		fmt.Printf("group %q created (id=%s)\n", args[1], id)
		return nil
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list <collection-id>",
	Short: "List groups in a collection",
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

		groups, err := e.ListGroups(ctx, collectionID)
		if err != nil {
			return fmt.Errorf("list groups: %w", err)
		}

		fmt.Printf("groups (%d):\n", len(groups))
		for _, g := range groups {
			fmt.Printf("  %s  %s\n", g.ID, g.Title)
		}
		return nil
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <collection-id> <group-id>",
	Short: "Delete a group and cascade its member records",
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

		e, s := mustEngine()
		defer closeEngine(e, s)

		ctx := context.Background()
		if err := restoreCollection(ctx, e, s, collectionID); err != nil {
			return err
		}
		if err := e.DeleteGroup(ctx, collectionID, groupID); err != nil {
			return fmt.Errorf("delete group: %w", err)
		}
		if err := persistCollection(ctx, e, s, collectionID); err != nil {
			return err
		}

		fmt.Printf("group %s deleted\n", groupID)
		return nil
	},
}
