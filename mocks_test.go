package gameanalytics

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tap30/gameanalytics-go/adapters"
)

const (
	testGameKey   = "5c6bcb5402204249437fb5a7a80a4959"
	testSecretKey = "16813a12f718bc5c620f56944e1abc3ea13ccbac"
	testBaseURL   = "http://collector.test/v2"
)

type postCall struct {
	URL     string
	Headers map[string]string
	Body    []byte
}

// Event decodes the one-element envelope of the call.
func (c postCall) Event(t *testing.T) map[string]any {
	t.Helper()
	var envelope []map[string]any
	require.NoError(t, json.Unmarshal(c.Body, &envelope))
	require.Len(t, envelope, 1)
	return envelope[0]
}

type mockResponse struct {
	status int
	body   string
	err    error
}

// mockTransport answers init and events with scripted responses.
type mockTransport struct {
	mu        sync.Mutex
	handshake mockResponse
	events    mockResponse
	calls     []postCall
}

var _ adapters.Transport = (*mockTransport)(nil)

func newMockTransport(serverTS int64) *mockTransport {
	body, _ := json.Marshal(map[string]any{"enabled": true, "server_ts": serverTS, "flags": []string{}})
	return &mockTransport{
		handshake: mockResponse{status: 200, body: string(body)},
		events:    mockResponse{status: 200},
	}
}

func (m *mockTransport) Post(_ context.Context, url string, headers map[string]string, body []byte) (*adapters.HTTPResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, postCall{URL: url, Headers: headers, Body: append([]byte(nil), body...)})

	resp := m.events
	if strings.HasSuffix(url, "/init") {
		resp = m.handshake
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return &adapters.HTTPResponse{Status: resp.status, Body: []byte(resp.body)}, nil
}

func (m *mockTransport) Calls() []postCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]postCall(nil), m.calls...)
}

func (m *mockTransport) LastCall(t *testing.T) postCall {
	t.Helper()
	calls := m.Calls()
	require.NotEmpty(t, calls)
	return calls[len(calls)-1]
}

// mockStorage wraps the memory store with injectable failures.
type mockStorage struct {
	*adapters.MemoryStorageAdapter
	getErr error
	setErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{MemoryStorageAdapter: adapters.NewMemoryStorageAdapter()}
}

func (m *mockStorage) GetInt(ctx context.Context, key string) (int, bool, error) {
	if m.getErr != nil {
		return 0, false, m.getErr
	}
	return m.MemoryStorageAdapter.GetInt(ctx, key)
}

func (m *mockStorage) SetInt(ctx context.Context, key string, value int) error {
	if m.setErr != nil {
		return m.setErr
	}
	return m.MemoryStorageAdapter.SetInt(ctx, key, value)
}

// fakeClock is advanced by hand.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
	err error
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (f *fakeClock) Now() (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return time.Time{}, f.err
	}
	return f.now, nil
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeClock) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type failingSigner struct{}

func (failingSigner) Sign(string, []byte) (string, error) {
	return "", errors.New("hsm offline")
}

func testFacts() adapters.DeviceFacts {
	return adapters.DeviceFacts{
		AppVersion:   "1.2.3.4",
		HardwareID:   "hw-0001",
		OSVersion:    "linux 6.1",
		Manufacturer: "tapsi",
		Platform:     "linux",
		SDKVersion:   adapters.DefaultSDKVersion,
		DeviceModel:  "amd64",
	}
}

type testEnv struct {
	client    *Client
	transport *mockTransport
	storage   *mockStorage
	clock     *fakeClock
}

func createTestConfig() ClientConfig {
	return ClientConfig{
		Credentials: Credentials{GameKey: testGameKey, SecretKey: testSecretKey},
		BaseURL:     testBaseURL,
		DeviceInfo:  adapters.StaticDeviceInfoAdapter{Facts: testFacts()},
		Transport:   newMockTransport(500000),
		Storage:     newMockStorage(),
		Clock:       newFakeClock(),
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	config := createTestConfig()
	client, err := NewClient(config)
	require.NoError(t, err)
	return &testEnv{
		client:    client,
		transport: config.Transport.(*mockTransport),
		storage:   config.Storage.(*mockStorage),
		clock:     config.Clock.(*fakeClock),
	}
}

func newInitializedEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	require.NoError(t, env.client.Init(context.Background()))
	return env
}
