//go:build !android

package clipboard

import (
	designclip "golang.design/x/clipboard"
)

// systemClipboard interacts with the actual system's clipboard using golang.design.
type systemClipboard struct{}

func (c *systemClipboard) Copy(data []byte) error {
	designclip.Write(designclip.FmtText, data)
	return nil
}

func (c *systemClipboard) Paste() ([]byte, error) {
	return designclip.Read(designclip.FmtText), nil
}

// initPlatformClipboard tries golang.design first, then CLI tools, then falls back to in-memory.
func initPlatformClipboard(fallback *inMemoryClipboard) error {
	err := designclip.Init()
	if err == nil {
		state.primary = &systemClipboard{}
		state.active = state.primary
		log.Debug("using system clipboard")
		return nil
	}
	log.Debug("system clipboard unavailable", "err", err)

	if detectCLIClipboard() {
		state.primary = &cliClipboard{}
		state.active = state.primary
		log.Debug("using clipboard command", "cmd", copyCmdArgs[0])
		return nil
	}

	state.active = fallback
	state.usingFallback = true
	log.Warn("no clipboard available, failed injections are kept in memory only")
	return nil
}
