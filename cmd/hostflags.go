package commands

import (
	"github.com/spf13/cobra"

	"inputbridge/config"
	"inputbridge/util"
)

var (
	hostKind         string
	serial           string
	hostFile         string
	inputMethod      string
	serviceComponent string
)

// addHostFlags registers the flags that pick and configure the device, for
// commands that talk to it directly.
func addHostFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&hostKind, "host", "adb", `Device kind: "adb" or "file"`)
	cmd.Flags().StringVar(&serial, "serial", "", "adb device serial (or "+util.EnvVarSerial+")")
	cmd.Flags().StringVar(&hostFile, "file", "", `uiautomator dump used by the "file" host`)
	cmd.Flags().StringVar(&inputMethod, "input-method", "shell", `How text is typed over adb: "shell" or "adbkeyboard"`)
	cmd.Flags().StringVar(&serviceComponent, "service-component", "", "Accessibility service that must be enabled, as package/class")
}

func applyHostFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Lookup("host") == nil {
		return
	}
	if flags.Changed("host") {
		c.Host.Kind = hostKind
	}
	if flags.Changed("serial") {
		c.Host.Serial = serial
	}
	if flags.Changed("file") {
		c.Host.File = hostFile
		if !flags.Changed("host") {
			c.Host.Kind = "file"
		}
	}
	if flags.Changed("input-method") {
		c.Host.InputMethod = inputMethod
	}
	if flags.Changed("service-component") {
		c.Host.ServiceComponent = serviceComponent
	}
}
