// Package host implements the devices text can be injected into.
package host

import (
	"context"
	"fmt"
	"log/slog"

	"inputbridge/config"
	"inputbridge/inject"
)

// Capability reports whether this process may drive the device's
// accessibility API, and can send the user to the screen that enables it.
type Capability interface {
	Enabled(ctx context.Context) bool
	RequestEnablement(ctx context.Context) error
}

// Device is a host that can both be queried and asked for permission.
type Device interface {
	inject.Host
	Capability
}

const (
	KindADB  = "adb"
	KindFile = "file"
)

// New builds the device selected by cfg.Kind.
func New(cfg config.HostConfig, log *slog.Logger) (Device, error) {
	switch cfg.Kind {
	case KindADB, "":
		return NewADB(ADBConfig{
			Serial:           cfg.Serial,
			Path:             cfg.ADBPath,
			InputMethod:      cfg.InputMethod,
			ServiceComponent: cfg.ServiceComponent,
			Timeout:          cfg.Timeout(),
		}, log), nil
	case KindFile:
		m, err := LoadMemory(cfg.File)
		if err != nil {
			return nil, err
		}
		m.SetSettingsURL(cfg.SettingsURL)
		return m, nil
	default:
		return nil, fmt.Errorf("unknown host kind %q (want %q or %q)", cfg.Kind, KindADB, KindFile)
	}
}
