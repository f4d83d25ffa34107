package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"inputbridge/a11y"
	"inputbridge/host"
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Prints the field text would be typed into",
	Long:  `Reads the active window of the configured device and prints the focused editable element, without typing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		device, err := host.New(cfg.Host, logger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Host.Timeout()+requestTimeout)
		defer cancel()

		root, err := device.RootInActiveWindow(ctx)
		if err != nil {
			return fmt.Errorf("could not read active window: %w", err)
		}
		if root == nil {
			return fmt.Errorf("no active window")
		}

		node := a11y.FindFocusedEditable(root)
		logger.Debug("searched active window", "nodes", a11y.Count(root))
		if node == nil {
			return fmt.Errorf("no focused editable element")
		}
		fmt.Fprintln(cmd.OutOrStdout(), a11y.Describe(node))
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Opens the accessibility settings on the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		device, err := host.New(cfg.Host, logger)
		if err != nil {
			return err
		}
		if device.Enabled(cmd.Context()) {
			fmt.Fprintln(cmd.OutOrStdout(), "Accessibility service is already enabled")
			return nil
		}
		return device.RequestEnablement(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(focusCmd)
	addHostFlags(focusCmd)
	rootCmd.AddCommand(settingsCmd)
	addHostFlags(settingsCmd)
}
