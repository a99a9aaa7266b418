package gameanalytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Tap30/gameanalytics-go/adapters"
)

func newTestDispatcher(transport Transport, signer Signer) *Dispatcher {
	return NewDispatcher(DispatcherConfig{
		BaseURL:   testBaseURL + "/",
		GameKey:   testGameKey,
		SecretKey: testSecretKey,
	}, NewProtocolV2(), transport, signer)
}

func designRecord() EventRecord {
	return EventRecord{Category: "design", Fields: map[string]any{
		"category": "design",
		"event_id": "Boss:Killed",
	}}
}

func TestDispatcher_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("should post a signed one-element envelope", func(t *testing.T) {
		transport := newMockTransport(0)
		d := newTestDispatcher(transport, adapters.HMACSHA256Signer{})

		resp, err := d.Send(ctx, RouteEvents, designRecord())
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Status)
		assert.Nil(t, resp.Fields)

		call := transport.LastCall(t)
		assert.Equal(t, testBaseURL+"/"+testGameKey+"/events", call.URL)
		assert.Equal(t, `[{"category":"design","event_id":"Boss:Killed"}]`, string(call.Body))
		assert.Equal(t, "application/json", call.Headers["Content-Type"])

		want, err := adapters.HMACSHA256Signer{}.Sign(testSecretKey, call.Body)
		require.NoError(t, err)
		assert.Equal(t, want, call.Headers["Authorization"])
	})

	t.Run("should return decoded init fields", func(t *testing.T) {
		transport := newMockTransport(1431002142)
		d := newTestDispatcher(transport, adapters.HMACSHA256Signer{})

		resp, err := d.Send(ctx, RouteInit, EventRecord{Fields: map[string]any{"platform": "linux"}})
		require.NoError(t, err)
		assert.Equal(t, true, resp.Fields["enabled"])
		ts, err := serverTimestamp(resp.Fields["server_ts"])
		require.NoError(t, err)
		assert.Equal(t, int64(1431002142), ts)
	})

	t.Run("should wrap signer failures without posting", func(t *testing.T) {
		transport := newMockTransport(0)
		d := newTestDispatcher(transport, failingSigner{})

		_, err := d.Send(ctx, RouteEvents, designRecord())
		var signingErr *SigningError
		require.ErrorAs(t, err, &signingErr)
		assert.ErrorContains(t, signingErr, "hsm offline")
		assert.Empty(t, transport.Calls())
	})

	t.Run("should classify network failures", func(t *testing.T) {
		transport := newMockTransport(0)
		netErr := errors.New("dial tcp: connection refused")
		transport.events = mockResponse{err: netErr}
		d := newTestDispatcher(transport, adapters.HMACSHA256Signer{})

		_, err := d.Send(ctx, RouteEvents, designRecord())
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, 0, transportErr.Status)
		assert.ErrorIs(t, err, netErr)
		assert.Len(t, transport.Calls(), 1, "no retry")
	})

	t.Run("should classify non-2xx status", func(t *testing.T) {
		for _, status := range []int{400, 401, 413, 500, 503} {
			transport := newMockTransport(0)
			transport.events = mockResponse{status: status}
			d := newTestDispatcher(transport, adapters.HMACSHA256Signer{})

			_, err := d.Send(ctx, RouteEvents, designRecord())
			var transportErr *TransportError
			require.ErrorAs(t, err, &transportErr)
			assert.Equal(t, status, transportErr.Status)
			assert.Len(t, transport.Calls(), 1)
		}
	})

	t.Run("should fail envelope encoding for unsupported values", func(t *testing.T) {
		transport := newMockTransport(0)
		d := newTestDispatcher(transport, adapters.HMACSHA256Signer{})
		record := EventRecord{Category: "design", Fields: map[string]any{"value": make(chan int)}}

		_, err := d.Send(ctx, RouteEvents, record)
		require.Error(t, err)
		assert.Empty(t, transport.Calls())
	})

	t.Run("should honor the rate limit under ctx", func(t *testing.T) {
		transport := newMockTransport(0)
		d := NewDispatcher(DispatcherConfig{
			BaseURL:            testBaseURL,
			GameKey:            testGameKey,
			SecretKey:          testSecretKey,
			MaxEventsPerSecond: 0.5,
		}, NewProtocolV2(), transport, adapters.HMACSHA256Signer{})

		_, err := d.Send(ctx, RouteEvents, designRecord())
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = d.Send(waitCtx, RouteEvents, designRecord())
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Len(t, transport.Calls(), 1)
	})
}

func TestDispatcher_Telemetry(t *testing.T) {
	ctx := context.Background()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	transport := newMockTransport(0)
	d := newTestDispatcher(transport, adapters.HMACSHA256Signer{})
	d.SetTelemetry(tp, mp)

	_, err := d.Send(ctx, RouteEvents, designRecord())
	require.NoError(t, err)
	transport.events = mockResponse{status: 500}
	_, err = d.Send(ctx, RouteEvents, designRecord())
	require.Error(t, err)

	t.Run("should record one span per dispatch", func(t *testing.T) {
		ended := spans.Ended()
		require.Len(t, ended, 2)
		for _, span := range ended {
			assert.Equal(t, "gameanalytics.dispatch", span.Name())
			assert.Contains(t, span.Attributes(), attribute.String("gameanalytics.route", "events"))
		}
		assert.Equal(t, codes.Unset, ended[0].Status().Code)
		assert.Equal(t, codes.Error, ended[1].Status().Code)
		assert.Equal(t, "transport_error", ended[1].Status().Description)
	})

	t.Run("should count dispatches by outcome", func(t *testing.T) {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))
		require.Len(t, rm.ScopeMetrics, 1)
		require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

		metric := rm.ScopeMetrics[0].Metrics[0]
		assert.Equal(t, "gameanalytics.dispatch.count", metric.Name)
		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok)

		outcomes := map[string]int64{}
		for _, dp := range sum.DataPoints {
			outcome, _ := dp.Attributes.Value("outcome")
			outcomes[outcome.AsString()] += dp.Value
		}
		assert.Equal(t, map[string]int64{"ok": 1, "transport_error": 1}, outcomes)
	})
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, "ok", outcomeOf(nil))
	assert.Equal(t, "transport_error", outcomeOf(&TransportError{Status: 500}))
	assert.Equal(t, "protocol_error", outcomeOf(&ProtocolError{Route: RouteInit}))
	assert.Equal(t, "signing_error", outcomeOf(&SigningError{Err: errors.New("x")}))
	assert.Equal(t, "error", outcomeOf(errors.New("x")))
}
