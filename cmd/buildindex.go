package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/frbviewer/internal/indexer"
	"github.com/okian/frbviewer/pkg/logger"
)

func buildIndexCmd() *cobra.Command {
	var (
		source      string
		pathRoot    string
		hostRoot    string
		indexOut    string
		tableOut    string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "build-index",
		Short: "Scan a PATH artifact tree into frb_index.json and path_table.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if source == "" {
				source = cfg.ActiveSource
			}
			src, ok := cfg.Source(source)
			if !ok {
				return fmt.Errorf("unknown source %q", source)
			}
			if pathRoot == "" {
				pathRoot = src.PathRoot
			}
			if hostRoot == "" {
				hostRoot = src.HostRoot
			}
			if indexOut == "" {
				indexOut = src.IndexPath
			}
			if tableOut == "" {
				tableOut = src.PathTablePath
			}
			if pathRoot == "" {
				return fmt.Errorf("no path root: set --path-root, sources.%s.path_root or CHIME_PATH_ROOT", source)
			}
			if tableOut == "" {
				return fmt.Errorf("no candidate table output: set --table-out or sources.%s.path_table_path", source)
			}

			res, err := indexer.New(pathRoot,
				indexer.WithHostRoot(hostRoot),
				indexer.WithConcurrency(concurrency),
				indexer.WithLogger(log),
			).Build(ctx)
			if err != nil {
				return err
			}
			if err := indexer.Write(res, indexOut, tableOut); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Index build complete.")
			fmt.Fprintf(out, "  Events:     %d -> %s\n", len(res.Events), indexOut)
			fmt.Fprintf(out, "  Candidates: %d -> %s\n", len(res.Candidates), tableOut)
			if len(res.Warnings) > 0 {
				fmt.Fprintf(out, "\nWarnings (%d):\n", len(res.Warnings))
				for _, w := range res.Warnings {
					fmt.Fprintf(out, "  - %s\n", w)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "configured source supplying roots and outputs (default: active source)")
	cmd.Flags().StringVar(&pathRoot, "path-root", "", "PATH artifact root")
	cmd.Flags().StringVar(&hostRoot, "host-root", "", "host-analysis artifact root")
	cmd.Flags().StringVar(&indexOut, "index-out", "", "event index output file")
	cmd.Flags().StringVar(&tableOut, "table-out", "", "candidate table output file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "year directories scanned in parallel (default: CPUs)")
	return cmd
}
