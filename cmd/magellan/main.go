// Command magellan is the CLI entrypoint wiring the scanner, reconcile
// primitive, query algorithms, export, and watcher into a single binary.
// Grounded on the teacher's cmd/lci/main.go (urfave/cli/v2 App with a
// global --root/--config flag pair and one Command per subsystem),
// restated over this rebuild's packages.
//
// The only shipped graph-store backend is in-memory (spec section 6's
// persisted-state layout describes a durable backend this rebuild does
// not implement, see DESIGN.md), so every subcommand scans the project
// fresh within its own process lifetime rather than opening a
// previously-populated store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/oldnordic/magellan/internal/config"
	"github.com/oldnordic/magellan/internal/export"
	"github.com/oldnordic/magellan/internal/filter"
	"github.com/oldnordic/magellan/internal/graphstore"
	"github.com/oldnordic/magellan/internal/query"
	"github.com/oldnordic/magellan/internal/resolver"
	"github.com/oldnordic/magellan/internal/scanner"
	"github.com/oldnordic/magellan/internal/watch"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "magellan",
		Usage:   "deterministic incrementally-maintained code knowledge base",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "project root to index", Value: "."},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file path", Value: ".magellan.yaml"},
		},
		Commands: []*cli.Command{
			scanCommand(),
			exportCommand(),
			queryCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "magellan: %v\n", err)
		os.Exit(1)
	}
}

// loadAndScan loads configuration, builds the filter, scans root, and
// builds the module resolver's whole-project index, the shared setup
// every subcommand needs before it can query or export.
func loadAndScan(c *cli.Context) (*graphstore.Store, *resolver.Resolver, scanner.Result, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, scanner.Result{}, fmt.Errorf("load config: %w", err)
	}
	root := c.String("root")

	f, err := filter.New(root, cfg.Index.RespectGitignore, cfg.Filter)
	if err != nil {
		return nil, nil, scanner.Result{}, fmt.Errorf("build filter: %w", err)
	}

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	res := resolver.New(store)

	result, err := scanner.Scan(context.Background(), store, res, root, f)
	if err != nil {
		return nil, nil, scanner.Result{}, fmt.Errorf("scan %s: %w", root, err)
	}
	res.BuildIndex()
	store.LogExecution("scan", fmt.Sprintf("root=%s indexed=%d unchanged=%d", root, result.Indexed, result.Unchanged))

	return store, res, result, nil
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "index the project and print a summary",
		Action: func(c *cli.Context) error {
			_, _, result, err := loadAndScan(c)
			if err != nil {
				return err
			}
			fmt.Printf("indexed=%d unchanged=%d diagnostics=%d\n", result.Indexed, result.Unchanged, len(result.Diagnostics))
			for _, d := range result.Diagnostics {
				fmt.Println(d.String())
			}
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "scan the project and export facts as JSON or JSONL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "json", Usage: "json or jsonl"},
			&cli.StringFlag{Name: "out", Usage: "output file path (default: stdout)"},
			&cli.BoolFlag{Name: "minify", Usage: "omit JSON indentation"},
			&cli.BoolFlag{Name: "symbols", Value: true, Usage: "include symbol records"},
			&cli.BoolFlag{Name: "references", Value: true, Usage: "include reference records"},
			&cli.BoolFlag{Name: "calls", Value: true, Usage: "include call records"},
			&cli.BoolFlag{Name: "metrics", Usage: "include file_metrics/symbol_metrics records"},
		},
		Action: func(c *cli.Context) error {
			store, _, _, err := loadAndScan(c)
			if err != nil {
				return err
			}

			cfg := config.Export{
				Format:            config.ExportFormat(c.String("format")),
				Minify:            c.Bool("minify"),
				IncludeSymbols:    c.Bool("symbols"),
				IncludeReferences: c.Bool("references"),
				IncludeCalls:      c.Bool("calls"),
				IncludeMetrics:    c.Bool("metrics"),
			}
			snap := export.Collect(store, cfg)
			store.LogExecution("export", fmt.Sprintf("format=%s files=%d symbols=%d", cfg.Format, len(snap.Files), len(snap.Symbols)))

			if out := c.String("out"); out != "" {
				return export.WriteFile(out, snap, cfg)
			}
			return export.Write(os.Stdout, snap, cfg)
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "run a call-graph analysis after scanning",
		Subcommands: []*cli.Command{
			{
				Name:      "reachable",
				Usage:     "symbols reachable from a starting symbol",
				ArgsUsage: "<symbol-id-or-fqn>",
				Action:    queryAction(func(store *graphstore.Store, arg string) (interface{}, error) { return query.ReachableSymbols(store, arg) }),
			},
			{
				Name:      "callers",
				Usage:     "symbols that can reach a target symbol",
				ArgsUsage: "<symbol-id-or-fqn>",
				Action:    queryAction(func(store *graphstore.Store, arg string) (interface{}, error) { return query.ReverseReachableSymbols(store, arg) }),
			},
			{
				Name:      "dead",
				Usage:     "symbols unreachable from an entry point",
				ArgsUsage: "<entry-symbol-id-or-fqn>",
				Action:    queryAction(func(store *graphstore.Store, arg string) (interface{}, error) { return query.DeadSymbols(store, arg) }),
			},
			{
				Name:   "cycles",
				Usage:  "every mutual-recursion / self-loop cycle in the project",
				Action: queryAction(func(store *graphstore.Store, _ string) (interface{}, error) { return query.DetectCycles(store) }),
			},
			{
				Name:      "backward-slice",
				Usage:     "everything that can influence a symbol",
				ArgsUsage: "<symbol-id-or-fqn>",
				Action:    queryAction(func(store *graphstore.Store, arg string) (interface{}, error) { return query.BackwardSlice(store, arg) }),
			},
			{
				Name:      "forward-slice",
				Usage:     "everything a symbol can influence",
				ArgsUsage: "<symbol-id-or-fqn>",
				Action:    queryAction(func(store *graphstore.Store, arg string) (interface{}, error) { return query.ForwardSlice(store, arg) }),
			},
		},
	}
}

// queryAction wraps a single-argument query algorithm as a *cli.Command
// Action: scan the project, run the algorithm with the command's first
// positional argument, and print the result as indented JSON.
func queryAction(run func(store *graphstore.Store, arg string) (interface{}, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, _, _, err := loadAndScan(c)
		if err != nil {
			return err
		}
		result, err := run(store, c.Args().First())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "scan once, then watch for changes and reconcile incrementally",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "debounce-ms", Value: 250},
			&cli.IntFlag{Name: "idle-timeout-ms", Value: 2000},
			&cli.IntFlag{Name: "bounded-events", Value: 0, Usage: "0 means unbounded"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			root := c.String("root")

			f, err := filter.New(root, cfg.Index.RespectGitignore, cfg.Filter)
			if err != nil {
				return fmt.Errorf("build filter: %w", err)
			}

			store := graphstore.NewStore(graphstore.NewMemoryBackend())
			res := resolver.New(store)

			scanResult, err := scanner.Scan(context.Background(), store, res, root, f)
			if err != nil {
				return fmt.Errorf("initial scan: %w", err)
			}
			res.BuildIndex()
			store.LogExecution("scan", fmt.Sprintf("root=%s indexed=%d unchanged=%d", root, scanResult.Indexed, scanResult.Unchanged))
			fmt.Printf("initial scan: indexed=%d unchanged=%d\n", scanResult.Indexed, scanResult.Unchanged)

			watchCfg := config.Watch{
				DebounceMs:    c.Int("debounce-ms"),
				IdleTimeoutMs: c.Int("idle-timeout-ms"),
				BoundedEvents: c.Int("bounded-events"),
			}
			w, err := watch.New(root, f, watchCfg)
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer w.Close()

			result, err := w.Run(context.Background(), store, res)
			if err != nil {
				return err
			}
			store.LogExecution("watch", fmt.Sprintf("root=%s processed=%d", root, result.Processed))
			fmt.Printf("watch: processed %d events\n", result.Processed)
			for path, outcome := range result.Outcomes {
				fmt.Printf("%s: %s\n", path, outcome.Kind)
			}
			return nil
		},
	}
}
