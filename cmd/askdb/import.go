package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mohammad-safakhou/askdb/config"
	"github.com/mohammad-safakhou/askdb/internal/store"
	"github.com/mohammad-safakhou/askdb/internal/tabular"
	"github.com/spf13/cobra"
)

func importCMD() *cobra.Command {
	var collection string
	var cfgPath string
	var imp = &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Load a CSV file into a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if collection == "" {
				collection = cfg.Storage.Collection
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			records, _, err := tabular.ReadCSV(f)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no records in %s", args[0])
			}

			ctx := context.Background()
			st, err := store.Open(ctx, store.Options{
				Driver: cfg.Storage.Driver,
				DSN:    cfg.Storage.Postgres.DSN(),
				Path:   cfg.Storage.SQLite.Path,
			})
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.InsertMany(ctx, collection, records)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d records into %q\n", n, collection)
			return nil
		},
	}
	imp.Flags().StringVar(&collection, "collection", "", "target collection (default from config)")
	imp.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")

	return imp
}
