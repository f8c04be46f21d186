package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/grantlens/internal/assets"
	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/common"
)

func assetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Check that every dashboard page's charts exist",
		Long: `Walk the asset manifest and report which pages are missing their image
or HTML chart files.

Missing files are reported but do not fail the command unless --strict is
set.`,
		RunE: runAssets,
	}

	cmd.Flags().String("manifest", "", "asset manifest file (default: built-in manifest)")
	cmd.Flags().String("dir", "", "asset base directory (overrides assets.dir)")
	cmd.Flags().Bool("strict", false, "exit non-zero when anything is missing")

	return cmd
}

func runAssets(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manifestPath := cfg.AssetsManifest
	if flagManifest, _ := cmd.Flags().GetString("manifest"); flagManifest != "" {
		manifestPath = flagManifest
	}
	baseDir := cfg.AssetsDir
	if flagDir, _ := cmd.Flags().GetString("dir"); flagDir != "" {
		baseDir = flagDir
	}
	strict, _ := cmd.Flags().GetBool("strict")

	manifest, err := assets.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	results := assets.Check(baseDir, manifest)

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s Asset Check", cli.ChartIcon)))
	for _, r := range results {
		if r.OK() {
			fmt.Fprintf(out, "%s %s (%d assets)\n", cli.SuccessIcon, r.Page.Name, r.Present)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", cli.ErrorIcon, r.Message())
		for _, a := range r.Missing {
			fmt.Fprintf(out, "    missing %s\n", a.File)
		}
	}

	s := assets.Summarize(results)
	line := fmt.Sprintf("%d of %d pages complete, %d assets present, %d missing",
		s.PagesOK, s.Pages, s.Present, s.Missing)
	if s.PagesOK == s.Pages {
		fmt.Fprintln(out, cli.FormatSuccess(line))
		return nil
	}
	fmt.Fprintln(out, cli.FormatWarning(line))

	if strict {
		return common.NewUserError(fmt.Sprintf("%d pages are missing assets", s.Pages-s.PagesOK), assets.ErrAssetsMissing)
	}
	return nil
}
