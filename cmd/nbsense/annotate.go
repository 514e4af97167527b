package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/nbsense/internal/app"
	"github.com/dshills/nbsense/internal/notebook"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <file.ipynb>...",
	Short: "Add the language hint to notebook metadata",
	Long:  "Sets metadata.language to the configured language in every notebook that lacks one. Other bytes of the file are left as written.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnnotate,
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	var errs app.ErrorList
	for _, path := range args {
		changed, err := notebook.EnsureLanguageFile(path, cfg.Notebook.Language, log.WithField("file", path))
		if err != nil {
			errs.Add(app.NewOperationError("annotate", path, err))
			continue
		}
		status := "unchanged"
		if changed {
			status = "updated"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, status)
	}
	return errs.AsError()
}
