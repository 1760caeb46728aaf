package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	vc "github.com/nullvector/vectorcore"
)

var (
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vectorcore",
	Short: "CLI for the vectorcore search engine",
	Long:  `A command-line interface for managing collections, groups, and records in a vectorcore engine.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "vectorcore.db", "Persistence database file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	collectionCmd.AddCommand(collectionCreateCmd, collectionListCmd, collectionDeleteCmd)
	collectionCreateCmd.Flags().Int("dimension", 0, "Vector dimension")
	collectionCreateCmd.Flags().String("index", string(vc.IndexTypeFlat), "Default index type (FLAT, KDTREE, LSH)")
	_ = collectionCreateCmd.MarkFlagRequired("dimension")
	collectionListCmd.Flags().Bool("json", false, "Output as JSON")

	groupCmd.AddCommand(groupCreateCmd, groupListCmd, groupDeleteCmd)

	recordCmd.AddCommand(recordInsertCmd, recordGetCmd, recordListCmd, recordDeleteCmd)
	recordInsertCmd.Flags().String("text", "", "Record text payload")
	recordInsertCmd.Flags().String("vector", "", "Embedding values (comma-separated); omit to embed --text")
	recordInsertCmd.Flags().String("author", "", "Record author")
	recordInsertCmd.Flags().String("source", "", "Record source")
	recordInsertCmd.Flags().StringSlice("tags", nil, "Record tags")
	recordListCmd.Flags().Bool("json", false, "Output as JSON")

	buildCmd.Flags().String("index", "", "Index type to build (defaults to the collection's default)")
	buildCmd.Flags().Int64("lsh-seed", 0, "Seed for LSH hyperplanes (required when index=LSH)")
	buildCmd.Flags().Bool("lsh-seed-set", false, "Set to mark --lsh-seed as explicitly supplied")

	statusCmd.Flags().Bool("json", false, "Output as JSON")

	queryCmd.Flags().String("vector", "", "Query vector (comma-separated)")
	queryCmd.Flags().Int("k", 10, "Number of results")
	queryCmd.Flags().Bool("allow-stale", false, "Serve from a stale index instead of erroring")
	queryCmd.Flags().Bool("fallback-on-stale", false, "Fall back to a full scan when the index is stale")
	queryCmd.Flags().Bool("json", false, "Output as JSON")
	_ = queryCmd.MarkFlagRequired("vector")

	similarityCmd.Flags().String("vector1", "", "First vector (comma-separated)")
	similarityCmd.Flags().String("vector2", "", "Second vector (comma-separated)")
	_ = similarityCmd.MarkFlagRequired("vector1")
	_ = similarityCmd.MarkFlagRequired("vector2")

	rootCmd.AddCommand(collectionCmd, groupCmd, recordCmd, buildCmd, statusCmd, queryCmd, similarityCmd)
}

func exitf(format string, args ...interface{}) {
	log.Printf(format, args...)
	os.Exit(1)
}
