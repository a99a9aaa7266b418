package gameanalytics

import (
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tap30/gameanalytics-go/adapters"
)

// Re-export adapter types for convenience
type (
	DeviceFacts        = adapters.DeviceFacts
	DeviceInfoProvider = adapters.DeviceInfoProvider
	Transport          = adapters.Transport
	HTTPResponse       = adapters.HTTPResponse
	KeyValueStore      = adapters.KeyValueStore
	Signer             = adapters.Signer
	LoggerAdapter      = adapters.LoggerAdapter
	LogLevel           = adapters.LogLevel
)

const (
	// DefaultBaseURL is the production collector.
	DefaultBaseURL = "https://api.gameanalytics.com/v2"
	// SandboxURL accepts any game key and is meant for integration testing.
	SandboxURL = "https://sandbox-api.gameanalytics.com/v2"

	// SessionCounterKey is the KeyValueStore key holding the per-install session counter.
	SessionCounterKey = "gameanalytics.session_num"
	// TransactionCounterKey is the KeyValueStore key holding the per-install business transaction counter.
	TransactionCounterKey = "gameanalytics.transaction_num"
)

// Route is the endpoint suffix appended to {baseURL}/{gameKey}/.
type Route string

const (
	RouteInit   Route = "init"
	RouteEvents Route = "events"
)

// Credentials identify the game. Both keys are issued by the collector.
type Credentials struct {
	GameKey   string
	SecretKey string
}

type ClientConfig struct {
	Credentials Credentials
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Protocol defaults to ProtocolV2.
	Protocol Protocol
	// HTTPTimeout applies to the default transport only.
	HTTPTimeout time.Duration
	// MaxEventsPerSecond throttles dispatch client-side. Zero disables throttling.
	MaxEventsPerSecond float64

	DeviceInfo DeviceInfoProvider
	Transport  Transport
	Storage    KeyValueStore
	Signer     Signer
	Logger     LoggerAdapter
	Clock      Clock

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

type DispatcherConfig struct {
	BaseURL            string
	GameKey            string
	SecretKey          string
	MaxEventsPerSecond float64
}
