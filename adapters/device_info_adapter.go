package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// DefaultSDKVersion is reported when the host does not override sdk_version.
const DefaultSDKVersion = "rest api v2"

// DeviceInfoProvider supplies the platform facts attached to every event.
type DeviceInfoProvider interface {
	DeviceFacts() (DeviceFacts, error)
}

// StaticDeviceInfoAdapter returns a fixed set of facts.
type StaticDeviceInfoAdapter struct {
	Facts DeviceFacts
}

// Ensure StaticDeviceInfoAdapter implements DeviceInfoProvider interface
var _ DeviceInfoProvider = StaticDeviceInfoAdapter{}

func (s StaticDeviceInfoAdapter) DeviceFacts() (DeviceFacts, error) {
	return s.Facts, nil
}

type deviceEnv struct {
	AppVersion   string `env:"GA_APP_VERSION" envDefault:"0.0.0.0"`
	HardwareID   string `env:"GA_HARDWARE_ID"`
	OSVersion    string `env:"GA_OS_VERSION" envDefault:"unknown"`
	Manufacturer string `env:"GA_MANUFACTURER" envDefault:"unknown"`
	Platform     string `env:"GA_PLATFORM"`
	SDKVersion   string `env:"GA_SDK_VERSION"`
	DeviceModel  string `env:"GA_DEVICE_MODEL"`
}

// EnvDeviceInfoAdapter reads facts from GA_* environment variables and fills the
// gaps from the Go runtime and the host name.
type EnvDeviceInfoAdapter struct {
	facts DeviceFacts
}

// Ensure EnvDeviceInfoAdapter implements DeviceInfoProvider interface
var _ DeviceInfoProvider = (*EnvDeviceInfoAdapter)(nil)

// NewEnvDeviceInfoAdapter parses the process environment.
func NewEnvDeviceInfoAdapter() (*EnvDeviceInfoAdapter, error) {
	return newEnvDeviceInfoAdapter(env.Options{})
}

// NewEnvDeviceInfoAdapterFrom parses the given variables instead of the process environment.
func NewEnvDeviceInfoAdapterFrom(environment map[string]string) (*EnvDeviceInfoAdapter, error) {
	return newEnvDeviceInfoAdapter(env.Options{Environment: environment})
}

func newEnvDeviceInfoAdapter(opts env.Options) (*EnvDeviceInfoAdapter, error) {
	var cfg deviceEnv
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Platform == "" {
		cfg.Platform = runtime.GOOS
	}
	if cfg.DeviceModel == "" {
		cfg.DeviceModel = runtime.GOARCH
	}
	if cfg.SDKVersion == "" {
		cfg.SDKVersion = DefaultSDKVersion
	}
	if cfg.HardwareID == "" {
		id, err := hostHardwareID()
		if err != nil {
			return nil, err
		}
		cfg.HardwareID = id
	}

	return &EnvDeviceInfoAdapter{facts: DeviceFacts{
		AppVersion:   cfg.AppVersion,
		HardwareID:   cfg.HardwareID,
		OSVersion:    cfg.OSVersion,
		Manufacturer: cfg.Manufacturer,
		Platform:     cfg.Platform,
		SDKVersion:   cfg.SDKVersion,
		DeviceModel:  cfg.DeviceModel,
	}}, nil
}

func (e *EnvDeviceInfoAdapter) DeviceFacts() (DeviceFacts, error) {
	return e.facts, nil
}

// hostHardwareID derives a stable, non-reversible identifier from the host name.
func hostHardwareID() (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("resolve hardware id: %w", err)
	}
	sum := sha256.Sum256([]byte("gameanalytics:" + host))
	return hex.EncodeToString(sum[:16]), nil
}
