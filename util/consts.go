// Package util provides reused functions and constants
package util

const ProgramName = "inputbridge"

const DefaultPort = 2851

const EnvVarServer = "INPUTBRIDGE_SERVER"
const EnvVarPort = "INPUTBRIDGE_PORT"
const EnvVarKey = "INPUTBRIDGE_KEY"
const EnvVarSerial = "INPUTBRIDGE_SERIAL"

const HeaderFingerprint = "X-Inputbridge-Key-Fingerprint"
const HeaderSignature = "X-Inputbridge-Signature"

const RequestCall = "/call"
const RequestQuit = "/quit"
const RequestHealth = "/health"
const RequestMetrics = "/metrics"

// GitHead is set at build time with -ldflags "-X inputbridge/util.GitHead=...".
var GitHead = "dev"
