package gameanalytics

import (
	"fmt"
	"sort"
)

// EventRecord is one event object. Fields holds every key sent on the wire,
// category included. Only records returned by BuildEvent can be sent with
// Client.SendEvent.
type EventRecord struct {
	Category string
	Fields   map[string]any

	annotated bool
}

// Get returns the value of a wire field.
func (r EventRecord) Get(key string) (any, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// Keys returns the wire field names in sorted order.
func (r EventRecord) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const (
	CategoryBusiness    = "business"
	CategoryDesign      = "design"
	CategoryProgression = "progression"
	CategoryResource    = "resource"
	CategoryError       = "error"
	CategorySessionEnd  = "session_end"
	CategoryUser        = "user"
)

// reservedFields are the annotation keys an extra field may never use.
var reservedFields = map[string]struct{}{
	"category":      {},
	"device":        {},
	"v":             {},
	"user_id":       {},
	"client_ts":     {},
	"sdk_version":   {},
	"os_version":    {},
	"manufacturer":  {},
	"platform":      {},
	"session_id":    {},
	"session_num":   {},
	"build":         {},
	"googleplus_id": {},
	"facebook_id":   {},
	"gender":        {},
	"birth_year":    {},
}

// ReceiptInfo carries an in-app purchase receipt. The store is always
// reported as "unknown".
type ReceiptInfo struct {
	Receipt   string
	Signature string
}

type BusinessOptions struct {
	CartType string
	Receipt  *ReceiptInfo
}

type eventBuilder struct {
	protocol Protocol
	facts    DeviceFacts
	session  *sessionContext
	profile  *profileManager
}

// maxExactInt is the largest magnitude an integer can have and still survive
// canonical JSON encoding, which reads every number as a double.
const maxExactInt = 1 << 53

// BuildEvent annotates extra with the base fields of the current session.
func (b *eventBuilder) BuildEvent(category string, extra map[string]any) (EventRecord, error) {
	return b.annotate(category, extra, b.profile.snapshot())
}

func (b *eventBuilder) annotate(category string, extra map[string]any, who identity) (EventRecord, error) {
	snap := b.session.snapshot()
	if !snap.Initialized {
		return EventRecord{}, ErrNotInitialized
	}
	for key := range extra {
		if _, ok := reservedFields[key]; ok {
			return EventRecord{}, &ReservedFieldError{Field: key}
		}
	}

	elapsed, err := b.session.elapsedSince(snap.InitInstant)
	if err != nil {
		return EventRecord{}, err
	}

	userID := who.userID
	if userID == "" {
		userID = b.facts.HardwareID
	}
	build := who.build
	if build == "" {
		build = b.facts.AppVersion
	}
	device := who.profile.Device
	if device == "" {
		device = b.facts.DeviceModel
	}

	fields := make(map[string]any, len(reservedFields)+len(extra))
	for k, v := range extra {
		fields[k] = v
	}
	fields["category"] = category
	fields["device"] = device
	fields["v"] = b.protocol.Version()
	fields["user_id"] = userID
	fields["client_ts"] = snap.ServerTimestampOffset + elapsed
	fields["sdk_version"] = b.facts.SDKVersion
	fields["os_version"] = b.facts.OSVersion
	fields["manufacturer"] = b.facts.Manufacturer
	fields["platform"] = b.facts.Platform
	fields["session_id"] = snap.SessionID
	fields["session_num"] = snap.SessionNumber
	fields["build"] = build

	p := who.profile
	if p.GooglePlusID != "" {
		fields["googleplus_id"] = p.GooglePlusID
	}
	if p.FacebookID != "" {
		fields["facebook_id"] = p.FacebookID
	}
	if p.Gender != GenderUnknown {
		gender, err := p.Gender.WireName()
		if err != nil {
			return EventRecord{}, err
		}
		fields["gender"] = gender
	}
	if p.BirthYear > 0 {
		fields["birth_year"] = p.BirthYear
	}

	if err := checkIntegers(fields); err != nil {
		return EventRecord{}, err
	}
	return EventRecord{Category: category, Fields: fields, annotated: true}, nil
}

// checkIntegers rejects integers that canonical encoding would round.
func checkIntegers(fields map[string]any) error {
	for key, v := range fields {
		var exact bool
		switch n := v.(type) {
		case int:
			exact = int64(n) >= -maxExactInt && int64(n) <= maxExactInt
		case int64:
			exact = n >= -maxExactInt && n <= maxExactInt
		case uint:
			exact = uint64(n) <= maxExactInt
		case uint64:
			exact = n <= maxExactInt
		default:
			continue
		}
		if !exact {
			return &InvalidFieldError{
				Field:  key,
				Reason: fmt.Sprintf("integer %v is outside the exact JSON number range", v),
			}
		}
	}
	return nil
}

// validate reports whether record can be sent as an event.
func (r EventRecord) validate() error {
	if !r.annotated {
		return &InvalidFieldError{Field: "category", Reason: "record was not built by BuildEvent"}
	}
	if category, _ := r.Fields["category"].(string); category != r.Category {
		return &InvalidFieldError{
			Field:  "category",
			Reason: fmt.Sprintf("field %q does not match record category %q", category, r.Category),
		}
	}
	return nil
}

// initPayload is the handshake body. It carries no session annotations.
func (b *eventBuilder) initPayload() EventRecord {
	return EventRecord{Fields: map[string]any{
		"platform":    b.facts.Platform,
		"os_version":  b.facts.OSVersion,
		"sdk_version": b.facts.SDKVersion,
	}}
}

func (b *eventBuilder) business(eventID, currency string, amount, transactionNum int, opts *BusinessOptions) (EventRecord, error) {
	extra := map[string]any{
		"event_id":        eventID,
		"currency":        currency,
		"amount":          amount,
		"transaction_num": transactionNum,
	}
	if opts != nil {
		if opts.CartType != "" {
			extra["cart_type"] = opts.CartType
		}
		if opts.Receipt != nil {
			receipt := map[string]any{
				"receipt": opts.Receipt.Receipt,
				"store":   "unknown",
			}
			if opts.Receipt.Signature != "" {
				receipt["signature"] = opts.Receipt.Signature
			}
			extra["receipt_info"] = receipt
		}
	}
	return b.BuildEvent(CategoryBusiness, extra)
}

func (b *eventBuilder) design(eventID string, value *float64) (EventRecord, error) {
	extra := map[string]any{"event_id": eventID}
	if value != nil {
		extra["value"] = *value
	}
	return b.BuildEvent(CategoryDesign, extra)
}

func (b *eventBuilder) progression(status ProgressionStatus, eventID string, score *int) (EventRecord, error) {
	name, err := status.WireName()
	if err != nil {
		return EventRecord{}, err
	}
	extra := map[string]any{"event_id": fmt.Sprintf("%s:%s", name, eventID)}
	if score != nil {
		extra["score"] = *score
	}
	return b.BuildEvent(CategoryProgression, extra)
}

func (b *eventBuilder) resource(flow FlowType, currency, itemType, itemID string, amount float64) (EventRecord, error) {
	name, err := flow.WireName()
	if err != nil {
		return EventRecord{}, err
	}
	return b.BuildEvent(CategoryResource, map[string]any{
		"event_id": fmt.Sprintf("%s:%s:%s:%s", name, currency, itemType, itemID),
		"amount":   amount,
	})
}

func (b *eventBuilder) errorEvent(message string, severity Severity) (EventRecord, error) {
	name, err := severity.WireName()
	if err != nil {
		return EventRecord{}, err
	}
	return b.BuildEvent(CategoryError, map[string]any{
		"message":  message,
		"severity": name,
	})
}

func (b *eventBuilder) sessionEnd() (EventRecord, error) {
	length, err := b.session.elapsedSeconds()
	if err != nil {
		return EventRecord{}, err
	}
	return b.BuildEvent(CategorySessionEnd, map[string]any{"length": length})
}

// user reports the extended fields of the stored profile merged with update.
// Nothing is stored; the caller commits the merge once the event is sent.
func (b *eventBuilder) user(update UserProfile) (EventRecord, error) {
	who, err := b.profile.preview(update)
	if err != nil {
		return EventRecord{}, err
	}
	return b.annotate(CategoryUser, who.profile.extendedFields(), who)
}
