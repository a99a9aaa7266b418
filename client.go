package gameanalytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"

	"github.com/Tap30/gameanalytics-go/adapters"
)

// Client reports game events to the collector. It is safe for concurrent
// use once Init has returned.
type Client struct {
	config     ClientConfig
	facts      DeviceFacts
	session    *sessionContext
	profile    *profileManager
	builder    *eventBuilder
	dispatcher *Dispatcher
	storage    KeyValueStore
	logger     LoggerAdapter
	handshake  *handshakeMutex

	txMu        sync.Mutex
	txNext      int
	txPersisted int

	lifecycle sync.RWMutex
	inflight  sync.WaitGroup
	disposed  bool
}

// NewClient validates config, applies defaults and reads device facts.
// No network call is made before Init.
func NewClient(config ClientConfig) (*Client, error) {
	// Validate required fields
	if config.Credentials.GameKey == "" {
		return nil, errors.New("GameKey is required")
	}
	if config.Credentials.SecretKey == "" {
		return nil, errors.New("SecretKey is required")
	}
	if config.MaxEventsPerSecond < 0 {
		return nil, errors.New("MaxEventsPerSecond cannot be negative")
	}

	// Set defaults
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if err := validateBaseURL(config.BaseURL); err != nil {
		return nil, err
	}
	if config.Protocol == nil {
		config.Protocol = NewProtocolV2()
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = adapters.DefaultHTTPTimeout
	}
	if config.Transport == nil {
		config.Transport = adapters.NewNetHTTPAdapter(config.HTTPTimeout)
	}
	if config.Storage == nil {
		config.Storage = adapters.NewMemoryStorageAdapter()
	}
	if config.Signer == nil {
		config.Signer = config.Protocol.DefaultSigner()
	}
	if config.Logger == nil {
		config.Logger = adapters.NewNoOpLoggerAdapter()
	}
	if config.Clock == nil {
		config.Clock = SystemClock()
	}
	if config.DeviceInfo == nil {
		provider, err := adapters.NewEnvDeviceInfoAdapter()
		if err != nil {
			return nil, fmt.Errorf("failed to read device info: %w", err)
		}
		config.DeviceInfo = provider
	}

	facts, err := config.DeviceInfo.DeviceFacts()
	if err != nil {
		return nil, fmt.Errorf("failed to read device info: %w", err)
	}

	dispatcher := NewDispatcher(DispatcherConfig{
		BaseURL:            config.BaseURL,
		GameKey:            config.Credentials.GameKey,
		SecretKey:          config.Credentials.SecretKey,
		MaxEventsPerSecond: config.MaxEventsPerSecond,
	}, config.Protocol, config.Transport, config.Signer)
	dispatcher.SetLoggerAdapter(config.Logger)
	dispatcher.SetTelemetry(config.TracerProvider, config.MeterProvider)

	session := newSessionContext(config.Clock)
	profile := newProfileManager()

	return &Client{
		config:     config,
		facts:      facts,
		session:    session,
		profile:    profile,
		dispatcher: dispatcher,
		storage:    config.Storage,
		logger:     config.Logger,
		handshake:  newHandshakeMutex(),
		builder: &eventBuilder{
			protocol: config.Protocol,
			facts:    facts,
			session:  session,
			profile:  profile,
		},
	}, nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid BaseURL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid BaseURL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid BaseURL %q: missing host", raw)
	}
	return nil
}

// Init performs the handshake. On success the session counter is
// incremented and persisted and the server clock offset is committed. On
// failure nothing changes. Calling Init again starts a new session.
func (c *Client) Init(ctx context.Context) error {
	return c.handshake.RunAtomic(ctx, func() error {
		c.session.begin()
		if err := c.init(ctx); err != nil {
			c.session.fail()
			c.logger.Warn("init failed", "error", err)
			return err
		}
		return nil
	})
}

func (c *Client) init(ctx context.Context) error {
	counter, _, err := c.storage.GetInt(ctx, SessionCounterKey)
	if err != nil {
		return fmt.Errorf("failed to read session counter: %w", err)
	}
	transactions, _, err := c.storage.GetInt(ctx, TransactionCounterKey)
	if err != nil {
		return fmt.Errorf("failed to read transaction counter: %w", err)
	}

	resp, err := c.dispatcher.Send(ctx, RouteInit, c.builder.initPayload())
	if err != nil {
		return err
	}
	if enabled, _ := resp.Fields["enabled"].(bool); !enabled {
		return ErrInitDisabled
	}
	offset, err := serverTimestamp(resp.Fields["server_ts"])
	if err != nil {
		return &ProtocolError{Route: RouteInit, Reason: "invalid server_ts", Err: err}
	}

	instant, err := c.session.sample()
	if err != nil {
		return err
	}

	next := counter + 1
	if err := c.storage.SetInt(ctx, SessionCounterKey, next); err != nil {
		return fmt.Errorf("failed to persist session counter: %w", err)
	}

	c.txMu.Lock()
	c.txNext = max(c.txNext, transactions)
	c.txPersisted = max(c.txPersisted, transactions)
	c.txMu.Unlock()

	c.session.commit(next, offset, instant)
	c.logger.Info("Client initialized successfully", "session_num", next, "server_ts", offset)
	return nil
}

// serverTimestamp reads server_ts as whole seconds. Fractions are truncated
// toward zero since client_ts is an integer on the wire.
func serverTimestamp(v any) (int64, error) {
	var f float64
	switch ts := v.(type) {
	case json.Number:
		if n, err := ts.Int64(); err == nil {
			return n, nil
		}
		parsed, err := ts.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case float64:
		f = ts
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	if math.IsNaN(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, fmt.Errorf("value %v out of range", f)
	}
	return int64(f), nil
}

// IsInitialized reports whether a handshake has committed.
func (c *Client) IsInitialized() bool {
	return c.session.snapshot().Initialized
}

// Initializing reports whether an Init handshake is in flight.
func (c *Client) Initializing() bool {
	return c.handshake.Busy()
}

func (c *Client) State() SessionState {
	return c.session.snapshot().State
}

// Session returns a copy of the session context.
func (c *Client) Session() SessionSnapshot {
	return c.session.snapshot()
}

func (c *Client) SessionID() string {
	return c.session.snapshot().SessionID
}

func (c *Client) SessionNumber() int {
	return c.session.snapshot().SessionNumber
}

// ElapsedSeconds returns whole seconds since the last successful Init.
func (c *Client) ElapsedSeconds() (int64, error) {
	return c.session.elapsedSeconds()
}

// DeviceFacts returns the facts read at construction.
func (c *Client) DeviceFacts() DeviceFacts {
	return c.facts
}

// BuildEvent returns the annotated record for a custom category without
// sending it.
func (c *Client) BuildEvent(category string, extra map[string]any) (EventRecord, error) {
	return c.builder.BuildEvent(category, extra)
}

// SendEvent dispatches a record built with BuildEvent. Records assembled by
// hand are rejected with *InvalidFieldError.
func (c *Client) SendEvent(ctx context.Context, record EventRecord) error {
	if !c.IsInitialized() {
		return ErrNotInitialized
	}
	return c.send(ctx, record, record.validate())
}

func (c *Client) send(ctx context.Context, record EventRecord, err error) error {
	if err != nil {
		return err
	}
	if _, err := c.dispatcher.Send(ctx, RouteEvents, record); err != nil {
		return err
	}
	c.logger.Debug("event sent", "category", record.Category)
	return nil
}

// SendBusinessEvent reports a real-money purchase. Amount is in minor
// currency units and sent verbatim.
func (c *Client) SendBusinessEvent(ctx context.Context, eventID, currency string, amount int, opts *BusinessOptions) error {
	if !c.IsInitialized() {
		return ErrNotInitialized
	}
	n := c.nextTransaction()
	record, err := c.builder.business(eventID, currency, amount, n, opts)
	if err := c.send(ctx, record, err); err != nil {
		return err
	}
	return c.persistTransaction(ctx, n)
}

func (c *Client) nextTransaction() int {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	c.txNext++
	return c.txNext
}

// persistTransaction stores n unless a larger number is already stored.
func (c *Client) persistTransaction(ctx context.Context, n int) error {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	if n <= c.txPersisted {
		return nil
	}
	if err := c.storage.SetInt(ctx, TransactionCounterKey, n); err != nil {
		return fmt.Errorf("failed to persist transaction counter: %w", err)
	}
	c.txPersisted = n
	return nil
}

// SendDesignEvent reports a design event; value is optional.
func (c *Client) SendDesignEvent(ctx context.Context, eventID string, value *float64) error {
	record, err := c.builder.design(eventID, value)
	return c.send(ctx, record, err)
}

// SendProgressionEvent reports "{status}:{eventID}"; score is optional.
func (c *Client) SendProgressionEvent(ctx context.Context, status ProgressionStatus, eventID string, score *int) error {
	record, err := c.builder.progression(status, eventID, score)
	return c.send(ctx, record, err)
}

func (c *Client) SendResourceEvent(ctx context.Context, flow FlowType, currency, itemType, itemID string, amount float64) error {
	record, err := c.builder.resource(flow, currency, itemType, itemID, amount)
	return c.send(ctx, record, err)
}

func (c *Client) SendErrorEvent(ctx context.Context, message string, severity Severity) error {
	record, err := c.builder.errorEvent(message, severity)
	return c.send(ctx, record, err)
}

// SendSessionEndEvent reports the session length in seconds.
func (c *Client) SendSessionEndEvent(ctx context.Context) error {
	record, err := c.builder.sessionEnd()
	return c.send(ctx, record, err)
}

// SendUserEvent reports the stored profile merged with profile. The merge is
// stored only once the event is sent.
func (c *Client) SendUserEvent(ctx context.Context, profile UserProfile) error {
	if !c.IsInitialized() {
		return ErrNotInitialized
	}
	record, err := c.builder.user(profile)
	if err := c.send(ctx, record, err); err != nil {
		return err
	}
	return c.profile.Merge(profile)
}

// SetUserID overrides the user_id annotation. Empty restores the hardware id.
func (c *Client) SetUserID(id string) {
	c.profile.SetUserID(strings.TrimSpace(id))
}

// SetBuild overrides the build annotation. Empty restores the app version.
func (c *Client) SetBuild(build string) {
	c.profile.SetBuild(strings.TrimSpace(build))
}

func (c *Client) SetBirthYear(year int) {
	_ = c.profile.Merge(UserProfile{BirthYear: year})
}

func (c *Client) SetGender(gender Gender) error {
	return c.profile.Merge(UserProfile{Gender: gender})
}

func (c *Client) SetFacebookID(id string) {
	_ = c.profile.Merge(UserProfile{FacebookID: id})
}

func (c *Client) SetGooglePlusID(id string) {
	_ = c.profile.Merge(UserProfile{GooglePlusID: id})
}

// UserProfile returns a copy of the merged profile.
func (c *Client) UserProfile() UserProfile {
	return c.profile.Profile()
}

// Go runs send on its own goroutine and returns its pending result.
//
//	p := client.Go(ctx, func(ctx context.Context) error {
//		return client.SendDesignEvent(ctx, "Boss:Killed", nil)
//	})
func (c *Client) Go(ctx context.Context, send func(ctx context.Context) error) *Pending {
	c.lifecycle.RLock()
	if c.disposed {
		c.lifecycle.RUnlock()
		return settledPending(ErrDisposed)
	}
	c.inflight.Add(1)
	c.lifecycle.RUnlock()

	p := newPending()
	go func() {
		defer c.inflight.Done()
		p.settle(send(ctx))
	}()
	return p
}

// Dispose stops accepting Go calls and waits for in-flight ones until ctx is done.
func (c *Client) Dispose(ctx context.Context) error {
	c.lifecycle.Lock()
	c.disposed = true
	c.lifecycle.Unlock()

	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		c.logger.Debug("client disposed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
