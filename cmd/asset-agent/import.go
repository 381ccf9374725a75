package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubev2v/asset-agent/internal/inventory"
	"github.com/kubev2v/asset-agent/internal/services"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import assets from a YAML or JSON inventory file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			inv, err := inventory.LoadFile(args[0])
			if err != nil {
				return err
			}

			db, st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := inventory.NewImporter(services.NewAssetService(st)).Import(cmd.Context(), inv)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d assets, %d group links, %d power links\n", res.Assets, res.GroupLinks, res.PowerLinks)
			return nil
		},
	}
	cmd.Flags().String("data-folder", "", "folder holding the asset database")
	return cmd
}
