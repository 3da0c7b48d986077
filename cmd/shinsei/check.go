package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pitabwire/shinsei/internal/catalog"
	"github.com/pitabwire/shinsei/internal/config"
	"github.com/pitabwire/shinsei/internal/contract"
	"github.com/pitabwire/shinsei/internal/request"
)

func newCheckConfigCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration, catalog, directory and API contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg.Catalog, request.DefaultRegistry())
			if err != nil {
				return err
			}
			users, err := loadDirectory(cfg.Directory)
			if err != nil {
				return err
			}
			c, err := contract.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config ok: port %d, session driver %s\n", cfg.Server.Port, cfg.Session.Driver)
			fmt.Fprintf(out, "catalog ok: %d workflows from %s (%s)\n", len(cat.IDs()), cat.Source(), cat.Checksum())
			fmt.Fprintf(out, "directory ok: %d users\n", users.Len())
			fmt.Fprintf(out, "contract ok: version %s, %d operations\n", c.Version(), len(c.OperationIDs()))
			return nil
		},
	}
}

func newCatalogCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the selectable workflow types and their validation problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			f, err := catalog.Load(cfg.Catalog.File)
			if err != nil {
				return err
			}
			forms := request.DefaultRegistry()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCONTROLLER")
			for _, wf := range f.Workflows {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", wf.ID, wf.DisplayName, forms.Has(wf.ID))
			}
			tw.Flush()

			verrs := catalog.Validate(f, forms.Has)
			for _, ve := range verrs {
				fmt.Fprintln(cmd.ErrOrStderr(), ve.Error())
			}
			if len(verrs) > 0 {
				return fmt.Errorf("catalog %s has %d problem(s)", f.SourceFile, len(verrs))
			}
			return nil
		},
	}
}
