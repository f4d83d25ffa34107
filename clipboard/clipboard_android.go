//go:build android

package clipboard

// initPlatformClipboard tries CLI tools first, then falls back to in-memory.
func initPlatformClipboard(fallback *inMemoryClipboard) error {
	if detectCLIClipboard() {
		state.primary = &cliClipboard{}
		state.active = state.primary
		log.Debug("using clipboard command", "cmd", copyCmdArgs[0])
		return nil
	}

	state.active = fallback
	state.usingFallback = true
	log.Warn("clipboard commands not available, failed injections are kept in memory only")
	return nil
}
