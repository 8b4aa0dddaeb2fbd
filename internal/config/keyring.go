package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const (
	// KeyringService is the namespace the session record lives under.
	KeyringService = "gamex_auth_prefs"

	appDir = "gamex"

	envKeyringBackend  = "GAMEX_KEYRING_BACKEND"
	envKeyringPassword = "GAMEX_KEYRING_PASSWORD"
	envCredentialsDir  = "GAMEX_CREDENTIALS_DIR"

	keyringBackendAuto   = "auto"
	keyringBackendFile   = "file"
	keyringBackendSystem = "system"
)

// openKeyring is a package-level function for opening keyrings.
// It can be replaced in tests to use a mock keyring.
var openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

var userConfigDir = os.UserConfigDir

var stdinHasTTY = func() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// SetOpenKeyring allows replacing the keyring opener for testing.
// Returns a cleanup function that restores the original.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	original := openKeyring
	openKeyring = fn
	return func() { openKeyring = original }
}

// OpenKeyring opens the keyring holding the session.
func OpenKeyring() (keyring.Keyring, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

func keyringConfig() keyring.Config {
	cfg := keyring.Config{
		ServiceName: KeyringService,
	}

	backend := keyringBackendMode()
	if backend == keyringBackendSystem {
		return cfg
	}

	// Configure the file backend in auto mode too so keyring.Open can fall
	// through to it when no native backend exists.
	cfg.FileDir = keyringFileDir()
	cfg.FilePasswordFunc = keyringFilePassword

	if shouldForceFileBackend(runtime.GOOS, backend, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}
	return cfg
}

func keyringBackendMode() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envKeyringBackend))) {
	case keyringBackendFile:
		return keyringBackendFile
	case keyringBackendSystem, "os", "native":
		return keyringBackendSystem
	default:
		return keyringBackendAuto
	}
}

// shouldForceFileBackend is true for an explicit file backend and for
// headless Linux, where the secret service is usually missing.
func shouldForceFileBackend(goos, backend, dbusAddr string) bool {
	if backend == keyringBackendFile {
		return true
	}
	if backend != keyringBackendAuto {
		return false
	}
	return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
}

func keyringFileDir() string {
	return filepath.Join(appConfigDir(), "keyring")
}

// appConfigDir is GAMEX_CREDENTIALS_DIR or the per-user config directory.
func appConfigDir() string {
	if dir := strings.TrimSpace(os.Getenv(envCredentialsDir)); dir != "" {
		return dir
	}
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, appDir)
	}
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(home, ".config", appDir)
	}
	return filepath.Join(os.TempDir(), appDir)
}

func keyringFilePassword(prompt string) (string, error) {
	if password, ok := os.LookupEnv(envKeyringPassword); ok && strings.TrimSpace(password) != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s when using file keyring in non-interactive environments", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}
