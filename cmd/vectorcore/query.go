package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	vc "github.com/nullvector/vectorcore"
)

var buildCmd = &cobra.Command{
	Use:   "build <collection-id>",
	Short: "Enqueue a background index build for a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collectionID, err := parseUUID(args[0])
		if err != nil {
			return err
		}

		indexType, _ := cmd.Flags().GetString("index")
		lshSeed, _ := cmd.Flags().GetInt64("lsh-seed")
		lshSeedSet, _ := cmd.Flags().GetBool("lsh-seed-set")

		e, s := mustEngine()
		defer closeEngine(e, s)

		ctx := context.Background()
		if err := restoreCollection(ctx, e, s, collectionID); err != nil {
			return err
		}

		params := vc.BuildParams{IndexType: vc.IndexType(indexType)}
		if lshSeedSet {
			params = params.WithLshSeed(lshSeed)
		}

		buildID, err := e.Build(ctx, collectionID, params)
		if err != nil {
			return fmt.Errorf("build: %w", err)
		}
		if err := persistCollection(ctx, e, s, collectionID); err != nil {
			return err
		}

		fmt.Printf("build enqueued (id=%s)\n", buildID)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <collection-id>",
	Short: "Report a collection's index health",
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

		status, err := e.Status(ctx, collectionID)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(status, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("index_type:         %s\n", status.IndexType)
		fmt.Printf("size:               %d\n", status.Size)
		fmt.Printf("data_version:       %d\n", status.DataVersion)
		fmt.Printf("index_version:      %d\n", status.IndexVersion)
		fmt.Printf("stale:              %t\n", status.Stale)
		fmt.Printf("rebuild_in_progress: %t\n", status.RebuildInProgress)
		fmt.Printf("rebuild_count:      %d\n", status.RebuildCount)
		if status.LastRebuildError != "" {
			fmt.Printf("last_rebuild_error: %s\n", status.LastRebuildError)
		}
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <collection-id>",
	Short: "Run a k-nearest-neighbor query against a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collectionID, err := parseUUID(args[0])
		if err != nil {
			return err
		}

		vectorStr, _ := cmd.Flags().GetString("vector")
		k, _ := cmd.Flags().GetInt("k")
		allowStale, _ := cmd.Flags().GetBool("allow-stale")
		fallbackOnStale, _ := cmd.Flags().GetBool("fallback-on-stale")

		vector, err := parseVector(vectorStr)
		if err != nil {
			return err
		}

		e, s := mustEngine()
		defer closeEngine(e, s)

		ctx := context.Background()
		if err := restoreCollection(ctx, e, s, collectionID); err != nil {
			return err
		}

		result, err := e.Query(ctx, vc.QueryRequest{
			CollectionID:       collectionID,
			Vector:             vector,
			K:                  k,
			AllowStale:         allowStale,
			UseFallbackOnStale: fallbackOnStale,
		})
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("index_used=%s stale=%t considered=%d\n", result.IndexTypeUsed, result.StaleIndex, result.ConsideredCount)
		for i, hit := range result.Hits {
			fmt.Printf("%d. %s  score=%.4f  %q\n", i+1, hit.ID, hit.Score, hit.Text)
		}
		return nil
	},
}

var similarityCmd = &cobra.Command{
	Use:   "similarity",
	Short: "Compute cosine similarity between two vectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		v1Str, _ := cmd.Flags().GetString("vector1")
		v2Str, _ := cmd.Flags().GetString("vector2")

		v1, err := parseVector(v1Str)
		if err != nil {
			return err
		}
		v2, err := parseVector(v2Str)
		if err != nil {
			return err
		}
		if len(v1) != len(v2) {
			return fmt.Errorf("vectors must have the same dimension")
		}

		score := vc.CosineSimilarity(vc.Normalize(v1), vc.Normalize(v2))
		fmt.Printf("cosine similarity: %.6f\n", score)
		return nil
	},
}
