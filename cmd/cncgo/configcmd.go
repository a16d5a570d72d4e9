package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cncgo/pkg/config"
	"cncgo/pkg/errors"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage printer profiles",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init PATH",
		Short: "Write the effective profile, including flag overrides, to PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists; use --force to replace it (a backup is kept)", path)
			}
			if err := a.profile.Config().Save(path); err != nil {
				return err
			}
			a.green.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Replace an existing file")

	show := &cobra.Command{
		Use:   "show [SECTION...]",
		Short: "Print the effective profile, or only the named sections",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.profile.Config()
			if len(args) > 0 {
				only := config.New()
				for _, name := range args {
					if !c.HasSection(name) {
						return errors.ConfigSectionError(name)
					}
					for k, v := range c.GetSectionOptional(name).RawOptions() {
						only.Set(name, k, v)
					}
				}
				c = only
			}
			_, err := c.WriteTo(cmd.OutOrStdout())
			return err
		},
	}

	cmd.AddCommand(initCmd, show)
	return cmd
}
