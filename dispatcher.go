package gameanalytics

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/Tap30/gameanalytics-go/adapters"
)

const instrumentationName = "github.com/Tap30/gameanalytics-go"

// Response is a validated collector answer.
type Response struct {
	Status int
	Body   []byte
	// Fields is the decoded response object; nil for an empty events body.
	Fields map[string]any
}

// Dispatcher sends one signed event per request. It never retries.
type Dispatcher struct {
	config     DispatcherConfig
	protocol   Protocol
	transport  Transport
	signer     Signer
	logger     LoggerAdapter
	limiter    *rate.Limiter
	tracer     trace.Tracer
	dispatches metric.Int64Counter
}

func NewDispatcher(config DispatcherConfig, protocol Protocol, transport Transport, signer Signer) *Dispatcher {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	d := &Dispatcher{
		config:    config,
		protocol:  protocol,
		transport: transport,
		signer:    signer,
		logger:    adapters.NewNoOpLoggerAdapter(),
	}
	if config.MaxEventsPerSecond > 0 {
		burst := int(config.MaxEventsPerSecond)
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(config.MaxEventsPerSecond), burst)
	}
	d.SetTelemetry(otel.GetTracerProvider(), otel.GetMeterProvider())
	return d
}

// SetLoggerAdapter sets a custom logger adapter
func (d *Dispatcher) SetLoggerAdapter(logger LoggerAdapter) {
	d.logger = logger
}

// SetTelemetry replaces the providers used for the dispatch span and counter.
// Nil providers keep the global ones.
func (d *Dispatcher) SetTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	d.tracer = tp.Tracer(instrumentationName)
	counter, err := mp.Meter(instrumentationName).Int64Counter(
		"gameanalytics.dispatch.count",
		metric.WithDescription("Collector requests by route and outcome"),
	)
	if err != nil {
		d.logger.Warn("dispatch counter unavailable", "error", err)
		counter = noop.Int64Counter{}
	}
	d.dispatches = counter
}

// URL returns the collector endpoint for route.
func (d *Dispatcher) URL(route Route) string {
	return d.config.BaseURL + "/" + d.config.GameKey + "/" + string(route)
}

// Send envelopes, signs and posts record, then validates the answer for route.
func (d *Dispatcher) Send(ctx context.Context, route Route, record EventRecord) (resp *Response, err error) {
	ctx, span := d.tracer.Start(ctx, "gameanalytics.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gameanalytics.route", string(route)),
			attribute.String("gameanalytics.category", record.Category),
		),
	)
	defer func() {
		outcome := outcomeOf(err)
		d.dispatches.Add(ctx, 1, metric.WithAttributes(
			attribute.String("route", string(route)),
			attribute.String("outcome", outcome),
		))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
	}()

	body, err := d.protocol.EncodeEnvelope(record)
	if err != nil {
		return nil, err
	}
	token, err := d.protocol.Sign(d.signer, d.config.SecretKey, body)
	if err != nil {
		return nil, err
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Err: err}
		}
	}

	headers := map[string]string{
		"Authorization": token,
		"Content-Type":  "application/json",
	}
	url := d.URL(route)
	d.logger.Debug("dispatching", "route", route, "category", record.Category, "bytes", len(body))

	httpResp, err := d.transport.Post(ctx, url, headers, body)
	if err != nil {
		d.logger.Error("collector unreachable", "route", route, "error", err)
		return nil, &TransportError{Err: err}
	}
	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.Status))
	if !httpResp.OK() {
		d.logger.Warn("collector rejected request", "route", route, "status", httpResp.Status)
		return nil, &TransportError{Status: httpResp.Status}
	}

	fields, err := d.protocol.ValidateResponse(route, httpResp.Body)
	if err != nil {
		d.logger.Warn("unexpected collector response", "route", route, "error", err)
		return nil, err
	}
	return &Response{Status: httpResp.Status, Body: httpResp.Body, Fields: fields}, nil
}

func outcomeOf(err error) string {
	var (
		transportErr *TransportError
		protocolErr  *ProtocolError
		signingErr   *SigningError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.As(err, &protocolErr):
		return "protocol_error"
	case errors.As(err, &signingErr):
		return "signing_error"
	default:
		return "error"
	}
}
