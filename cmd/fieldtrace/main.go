package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fieldtrace/fieldtrace"
	"github.com/fieldtrace/fieldtrace/internal/config"
	"github.com/fieldtrace/fieldtrace/internal/schema"
	"github.com/fieldtrace/fieldtrace/internal/store"
)

var (
	cfgFile        string
	outputFile     string
	outputDir      string
	tables         string
	excludeTables  string
	format         string
	dialectName    string
	splitThreshold int

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fieldtrace",
	Short: "Manage the produce supply-chain database",
	Long: `FieldTrace keeps the records of a produce supply chain: transport, producers, packing, processing and inspections.

It creates the schema, loads fixtures, and refuses to delete any record that another record still references.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile, cmd.Flags())
		return err
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create any missing tables",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the expected schema as documentation or DDL",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Document the live schema of the database",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare the live schema with the expected one",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("db", "", "Database URL (postgres://, mysql://, sqlite:// or sqlserver://)")
	rootCmd.PersistentFlags().String("log-level", "", "SQL log level: silent, error, warn or info")
	rootCmd.PersistentFlags().StringP("schema", "s", "", "Database schema name (default: public for PostgreSQL, dbo for SQL Server)")

	for _, cmd := range []*cobra.Command{schemaCmd, inspectCmd} {
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
		cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for multi-file output")
		cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, markdown, yaml or sql")
	}
	schemaCmd.Flags().StringVar(&dialectName, "dialect", "postgres", "DDL dialect for --format sql: postgres, mysql, sqlite or sqlserver")
	inspectCmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	inspectCmd.Flags().StringVarP(&excludeTables, "exclude", "x", "", "Tables to leave out (comma-separated, optional)")
	inspectCmd.Flags().IntVar(&splitThreshold, "split-threshold", 0, "Split into multiple files when table count exceeds this (requires --output-dir)")

	rootCmd.AddCommand(migrateCmd, schemaCmd, inspectCmd, verifyCmd)
	rootCmd.AddCommand(dependentsCmd, deleteCmd, seedCmd, userCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(s)

	created, err := s.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	if len(created) == 0 {
		log.Println("Schema is up to date")
		return nil
	}
	for _, name := range created {
		log.Printf("Created table %s", name)
	}
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	dialect, err := schema.ParseDialect(dialectName)
	if err != nil {
		return err
	}

	return writeOutput(func(w io.Writer) error {
		return fieldtrace.FormatSchema(fieldtrace.Catalog(), &fieldtrace.OutputOptions{
			Writer:    w,
			OutputDir: outputDir,
			Format:    format,
			Dialect:   dialect,
		})
	})
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	opts := &fieldtrace.Options{
		Tables:        parseTableList(tables),
		ExcludeTables: parseTableList(excludeTables),
		SchemaName:    cfg.Schema,
	}

	return writeOutput(func(w io.Writer) error {
		err := fieldtrace.ExtractAndFormat(cmd.Context(), cfg.DatabaseURL, opts, &fieldtrace.OutputOptions{
			Writer:         w,
			OutputDir:      outputDir,
			Format:         format,
			SplitThreshold: splitThreshold,
		})
		if err != nil {
			return fmt.Errorf("failed to extract schema: %w", err)
		}
		return nil
	})
}

func runVerify(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	findings, err := fieldtrace.VerifySchema(cmd.Context(), cfg.DatabaseURL, &fieldtrace.Options{SchemaName: cfg.Schema})
	if err != nil {
		return fmt.Errorf("failed to verify schema: %w", err)
	}

	if len(findings) == 0 {
		log.Println("Schema matches the catalog")
		return nil
	}
	for _, f := range findings {
		fmt.Println(f)
	}
	return fmt.Errorf("schema has %d finding(s)", len(findings))
}

// writeOutput hands format the writer chosen by --output, or stdout.
func writeOutput(format func(w io.Writer) error) error {
	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	var writer io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
			}
		}()
		writer = f
	}

	return format(writer)
}

func openStore(ctx context.Context) (*store.Store, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	s, err := fieldtrace.OpenStore(ctx, cfg.DatabaseURL, &fieldtrace.StoreOptions{
		LogLevel:     cfg.LogLevel,
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return s, nil
}

func closeStore(s *store.Store) {
	if err := s.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to close database: %v\n", err)
	}
}

// parseTableList splits a comma-separated flag value, dropping blanks.
func parseTableList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}

	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func main() {
	log.SetFlags(0)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
