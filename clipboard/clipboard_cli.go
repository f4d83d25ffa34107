package clipboard

import (
	"errors"
	"os"
	"os/exec"
)

const (
	xsel               = "xsel"
	xclip              = "xclip"
	wlcopy             = "wl-copy"
	wlpaste            = "wl-paste"
	termuxClipboardGet = "termux-clipboard-get"
	termuxClipboardSet = "termux-clipboard-set"
)

var (
	pasteCmdArgs []string
	copyCmdArgs  []string

	xselPasteArgs = []string{xsel, "--output", "--clipboard"}
	xselCopyArgs  = []string{xsel, "--input", "--clipboard"}

	xclipPasteArgs = []string{xclip, "-out", "-selection", "clipboard"}
	xclipCopyArgs  = []string{xclip, "-in", "-selection", "clipboard"}

	wlpasteArgs = []string{wlpaste, "--no-newline"}
	wlcopyArgs  = []string{wlcopy}

	termuxPasteArgs = []string{termuxClipboardGet}
	termuxCopyArgs  = []string{termuxClipboardSet}

	errClipboardUnavailable = errors.New("no clipboard utilities available: install xsel, xclip, wl-clipboard, or enable Termux:API")
)

// detectCLIClipboard picks the first clipboard tool found in PATH and
// reports whether there was one.
func detectCLIClipboard() bool {
	if os.Getenv("WAYLAND_DISPLAY") != "" && hasCommand(wlcopy) && hasCommand(wlpaste) {
		pasteCmdArgs, copyCmdArgs = wlpasteArgs, wlcopyArgs
		return true
	}
	if hasCommand(xclip) {
		pasteCmdArgs, copyCmdArgs = xclipPasteArgs, xclipCopyArgs
		return true
	}
	if hasCommand(xsel) {
		pasteCmdArgs, copyCmdArgs = xselPasteArgs, xselCopyArgs
		return true
	}
	if hasCommand(termuxClipboardSet) && hasCommand(termuxClipboardGet) {
		pasteCmdArgs, copyCmdArgs = termuxPasteArgs, termuxCopyArgs
		return true
	}
	return false
}

func hasCommand(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// cliClipboard talks to the clipboard through external tools.
type cliClipboard struct{}

func (c *cliClipboard) Paste() ([]byte, error) {
	if len(pasteCmdArgs) == 0 {
		return nil, errClipboardUnavailable
	}
	return exec.Command(pasteCmdArgs[0], pasteCmdArgs[1:]...).Output()
}

func (c *cliClipboard) Copy(data []byte) error {
	if len(copyCmdArgs) == 0 {
		return errClipboardUnavailable
	}

	cmd := exec.Command(copyCmdArgs[0], copyCmdArgs[1:]...)
	in, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	if _, err := in.Write(data); err != nil {
		return err
	}
	if err := in.Close(); err != nil {
		return err
	}
	return cmd.Wait()
}
