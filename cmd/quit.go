package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"inputbridge/util"
)

var quitCmd = &cobra.Command{
	Use:   "quit",
	Short: "Quits server",
	Long:  fmt.Sprintf(`Tell the remote %s server to quit.`, util.ProgramName),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, body, err := doHTTPSRequest(http.MethodPost, serverURL(util.RequestQuit), nil)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("server returned non-200 status: %d\n%s", status, body)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quitCmd)
}
