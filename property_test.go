package gameanalytics

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Tap30/gameanalytics-go/adapters"
)

// TestSigningDeterminism verifies a token depends only on key and body bytes.
// Property: Sign(k, b) == Sign(k, b) and Sign(k, b) != Sign(k, b') for b != b'
func TestSigningDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	signer := adapters.HMACSHA256Signer{}

	properties.Property("same key and body give the same token", prop.ForAll(
		func(key, body string) bool {
			if key == "" {
				return true
			}
			a, errA := signer.Sign(key, []byte(body))
			b, errB := signer.Sign(key, []byte(body))
			return errA == nil && errB == nil && a == b
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("flipping one byte changes the token", prop.ForAll(
		func(key, body string, at int) bool {
			if key == "" || body == "" {
				return true
			}
			original := []byte(body)
			mutated := append([]byte(nil), original...)
			mutated[at%len(mutated)] ^= 0x01
			a, _ := signer.Sign(key, original)
			b, _ := signer.Sign(key, mutated)
			return a != b
		},
		gen.AlphaString(),
		gen.AnyString(),
		gen.IntRange(0, 1<<16),
	))

	properties.Property("envelope encoding is stable for any field order", prop.ForAll(
		func(keys []string, values []string) bool {
			fields := make(map[string]any)
			for i := 0; i < len(keys) && i < len(values); i++ {
				fields[keys[i]] = values[i]
			}
			p := NewProtocolV2()
			first, err1 := p.EncodeEnvelope(EventRecord{Fields: fields})
			copied := make(map[string]any, len(fields))
			for k, v := range fields {
				copied[k] = v
			}
			second, err2 := p.EncodeEnvelope(EventRecord{Fields: copied})
			return err1 == nil && err2 == nil && string(first) == string(second)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}

// TestProfileMergeMonotonic verifies set fields are never reset by later updates.
func TestProfileMergeMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a set birth year survives any update without one", prop.ForAll(
		func(year int, facebookID string, gender int) bool {
			m := newProfileManager()
			if err := m.Merge(UserProfile{BirthYear: year}); err != nil {
				return false
			}
			if err := m.Merge(UserProfile{FacebookID: facebookID, Gender: Gender(gender)}); err != nil {
				return false
			}
			p := m.Profile()
			return p.BirthYear == year && p.FacebookID == facebookID
		},
		gen.IntRange(1900, 2030),
		gen.AlphaString(),
		gen.IntRange(0, 2),
	))

	properties.Property("the last set value wins", prop.ForAll(
		func(ids []string) bool {
			m := newProfileManager()
			last := ""
			for _, id := range ids {
				_ = m.Merge(UserProfile{AndroidID: id})
				if id != "" {
					last = id
				}
			}
			return m.Profile().AndroidID == last
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
