package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kubev2v/asset-agent/internal/bus"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

func newGetIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-id <name>",
		Short: "Resolve an asset internal name to its id through the bus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			nc, err := connectBus(cfg)
			if err != nil {
				return err
			}
			defer nc.Close()

			id, err := bus.NewClient(nc, busConfig(cfg)).GetID(cmd.Context(), args[0])
			switch {
			case srvErrors.IsElementNotFoundError(err):
				fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("%s", err))
				return nil
			case err != nil:
				fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("lookup failed: %v", err))
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString(args[0]), color.CyanString("%d", id))
			return nil
		},
	}
}
