package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"inputbridge/server"
	"inputbridge/util"
)

var waitFlag bool

var inputCmd = &cobra.Command{
	Use:   "input [text]",
	Short: "Types text into the device's focused field",
	Long: fmt.Sprintf(`Sends text to the remote %s server, which types it into the focused editable field
of the device. Text is read from standard input when no argument is given.

By default the server only confirms it accepted the request. With --wait it
reports whether the text actually landed in a field.`, util.ProgramName),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var text string
		if len(args) == 1 {
			text = args[0]
		} else {
			bytes, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read from stdin: %w", err)
			}
			text = string(bytes)
		}

		method := server.MethodInputText
		if waitFlag {
			method = server.MethodInputTextAndWait
		}

		reply, err := callMethod(server.MethodCall{
			Method:    method,
			Arguments: map[string]any{"text": text},
		})
		if err != nil {
			return err
		}
		if !reply.OK() {
			return fmt.Errorf("%s: %s", reply.Code, reply.Message)
		}
		logger.Debug("text accepted", "id", reply.ID, "chars", len([]rune(text)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inputCmd)
	inputCmd.Flags().BoolVar(&waitFlag, "wait", false, "wait until the text is typed and report failures.")
}
