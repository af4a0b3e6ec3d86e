package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	bundlex "github.com/tanpawarit/chative-sei/pkg/bundle"
	configx "github.com/tanpawarit/chative-sei/pkg/config"
)

var fetchForce bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the case bundle into the case store",
	Long: `Download the configured zip bundle (BUNDLE_URL, BUNDLE_DRIVE_FILE_ID or
BUNDLE_MINIO_*) and extract it into CASESTORE_ROOT.

An already populated case store is left alone unless --force is given.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "extract even when the case store is not empty")
}

func runFetch(cmd *cobra.Command, args []string) error {
	store, _, err := openLookup()
	if err != nil {
		return err
	}
	cfg, err := configx.New[bundlex.Config]("BUNDLE")
	if err != nil {
		return fmt.Errorf("load bundle config: %w", err)
	}

	out := cmd.OutOrStdout()
	if !fetchForce && bundlex.IsPopulated(store.Root()) {
		fmt.Fprintf(out, "%s already populated, nothing to do\n", store.Root())
		return nil
	}

	src, err := bundlex.SourceFromConfig(*cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	n, err := bundlex.Install(ctx, src, store.Root(), bundlex.InstallOptions{
		MaxBytes:        cfg.MaxBytes,
		StripComponents: cfg.StripComponents,
	})
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(out, "extracted %d files from %s into %s\n", n, src, store.Root())
	return nil
}
