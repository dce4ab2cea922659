package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/factstore/datomize/internal/storage"
	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/datomize"
	"github.com/factstore/datomize/pkg/schema"
	"github.com/factstore/datomize/pkg/store"
)

type options struct {
	dbPath     string
	schemaPath string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "datomize",
		Short: "Encode nested documents as flat facts in a triple-style store",
		Long: `datomize turns nested JSON documents into flat entity-attribute-value
facts and back. Re-encoding an entity emits only the facts that changed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", "./datomize_data", "path to the badger database directory")
	root.PersistentFlags().StringVar(&opts.schemaPath, "schema", "", "path to the YAML attribute schema")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(newEncodeCmd(opts))
	root.AddCommand(newDecodeCmd(opts))
	return root
}

func newEncodeCmd(opts *options) *cobra.Command {
	var (
		entityID  int64
		partition string
		commit    bool
	)

	cmd := &cobra.Command{
		Use:   "encode <document.json>",
		Short: "Encode a JSON document into a minimal fact transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}
			entity, err := datomize.FromJSON(data)
			if err != nil {
				return err
			}

			dzOpts := []datomize.Option{datomize.WithPartition(partition)}
			if entityID != 0 {
				dzOpts = append(dzOpts, datomize.WithEntityID(datom.ID(entityID)))
			}

			tx, err := datomize.Datomize(st, entity, dzOpts...)
			if err != nil {
				return err
			}
			slog.Debug("encoded document", "facts", len(tx))

			for _, d := range tx {
				fmt.Println(d)
			}

			if !commit {
				return nil
			}
			report, err := st.Transact(tx)
			if err != nil {
				return fmt.Errorf("failed to commit transaction: %w", err)
			}
			slog.Info("transaction committed", "tx", report.TxID, "facts", len(report.TxData))
			for temp, id := range report.TempIDs {
				fmt.Printf("%s -> %s\n", temp, id)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&entityID, "id", 0, "existing entity id to re-encode")
	cmd.Flags().StringVar(&partition, "partition", datomize.DefaultPartition, "partition scoping placeholder ids")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the transaction instead of only printing it")
	return cmd
}

func newDecodeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <entity-id>",
		Short: "Reconstruct the nested document rooted at an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entity id %q: %w", args[0], err)
			}

			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			snap, err := st.DB()
			if err != nil {
				return err
			}
			defer snap.Close()

			entity, err := datomize.Decode(snap, datom.ID(id))
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(entity, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render entity: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
	return cmd
}

func openStore(opts *options) (store.Store, error) {
	sch := schema.New()
	if opts.schemaPath != "" {
		var err error
		sch, err = schema.Load(opts.schemaPath)
		if err != nil {
			return nil, err
		}
	}

	slog.Debug("opening database", "path", opts.dbPath)
	st, err := storage.Open(opts.dbPath, sch)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

func closeStore(st store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing store", "error", err)
	}
}
