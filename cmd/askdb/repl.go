package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/askdb/config"
	"github.com/mohammad-safakhou/askdb/internal/search"
	"github.com/mohammad-safakhou/askdb/internal/store"
	"github.com/mohammad-safakhou/askdb/internal/tabular"
	"github.com/mohammad-safakhou/askdb/internal/translator"
	"github.com/mohammad-safakhou/askdb/provider"
	"github.com/mohammad-safakhou/askdb/session"
	"github.com/mohammad-safakhou/askdb/session/inmemory"
)

func replCMD() *cobra.Command {
	var collection string
	var save bool
	var cfgPath string
	var repl = &cobra.Command{
		Use:   "repl",
		Short: "Query a collection interactively in plain language",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if collection == "" {
				collection = cfg.Storage.Collection
			}

			ctx := context.Background()
			st, err := store.Open(ctx, store.Options{
				Driver: cfg.Storage.Driver,
				DSN:    cfg.Storage.Postgres.DSN(),
				Path:   cfg.Storage.SQLite.Path,
			})
			if err != nil {
				return fmt.Errorf("store connection failed: %w", err)
			}
			defer st.Close()

			prov, err := provider.New(cfg.Provider)
			if err != nil {
				return err
			}

			tr, err := translator.New(ctx, st, prov, collection, cfg.Translator.Attempts, cfg.Translator.RetryDelay)
			if err != nil {
				return err
			}
			if len(tr.Fields()) == 0 {
				return fmt.Errorf("collection %q is empty, import data first", collection)
			}

			sessions := inmemory.NewStore()
			sess, err := sessions.Ensure(ctx, "", cfg.Session.TTL)
			if err != nil {
				return err
			}

			fmt.Printf("connected to %q using %s\n", collection, prov.Name())
			fmt.Printf("available fields: %s\n", strings.Join(tr.Fields(), ", "))
			fmt.Println("type a question in plain language, /fields, /search <text>, or exit")

			return runREPL(ctx, cfg, tr, st, sessions, sess.ID, collection, save)
		},
	}
	repl.Flags().StringVar(&collection, "collection", "", "collection to query (default from config)")
	repl.Flags().BoolVar(&save, "save", false, "export each result set to a CSV file")
	repl.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")

	return repl
}

// runREPL reads questions until exit or EOF. A failed question is
// reported and the loop keeps going; only the initial setup is fatal.
func runREPL(ctx context.Context, cfg *config.Config, tr *translator.Translator, st store.Store, sessions session.Store, sessionID, collection string, save bool) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("ask> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case line == "/fields":
			fmt.Println(strings.Join(tr.Fields(), ", "))
			continue
		case strings.HasPrefix(line, "/search"):
			text := strings.TrimSpace(strings.TrimPrefix(line, "/search"))
			if err := runSearch(ctx, st, collection, text); err != nil {
				fmt.Printf("error: %v\n", err)
			}
			continue
		}

		res, err := tr.Ask(ctx, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		filter, _ := json.MarshalIndent(res.Filter, "", "  ")
		fmt.Printf("filter (%s, %d attempt(s)):\n%s\n", res.Source, res.Attempts, filter)
		tabular.RenderTable(os.Stdout, tabular.Columns(res.Records), res.Records, cfg.Display.MaxRows)
		fmt.Printf("%d result(s) in %.2f seconds\n", len(res.Records), res.Elapsed.Seconds())

		n, err := sessions.IncrementQueries(ctx, sessionID)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if save {
			path, err := exportResult(cfg.Exports.Dir, n, res.Records)
			if err != nil {
				fmt.Printf("export failed: %v\n", err)
				continue
			}
			fmt.Printf("saved %s\n", path)
		}
	}
}

func runSearch(ctx context.Context, st store.Store, collection, text string) error {
	if text == "" {
		return fmt.Errorf("usage: /search <text>")
	}
	recs, err := st.Find(ctx, collection, nil)
	if err != nil {
		return err
	}
	hits, err := search.Records(recs, text, 10)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("(no matches)")
		return nil
	}
	matched := make([]store.Record, 0, len(hits))
	for _, h := range hits {
		matched = append(matched, h.Record)
	}
	tabular.RenderTable(os.Stdout, tabular.Columns(matched), matched, 0)
	return nil
}

func exportResult(dir string, n int, records []store.Record) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, tabular.ExportName(n))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := tabular.WriteCSV(f, tabular.Columns(records), records); err != nil {
		return "", err
	}
	return path, nil
}
