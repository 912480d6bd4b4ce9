package stripe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSecret = "whsec_test"

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded"}`)
	header := SignPayload(testSecret, "1767225600", payload)

	assert.NoError(t, VerifySignature(testSecret, payload, header))
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload(testSecret, "1767225600", payload)

	err := VerifySignature(testSecret, []byte(`{"id":"evt_2"}`), header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{}`)
	header := SignPayload("whsec_other", "1767225600", payload)

	assert.ErrorIs(t, VerifySignature(testSecret, payload, header), ErrInvalidSignature)
}

func TestVerifySignatureHeaderShapes(t *testing.T) {
	payload := []byte(`{}`)

	cases := map[string]string{
		"empty":            "",
		"missing v1":       "t=1767225600",
		"missing t":        "v1=deadbeef",
		"garbage":          "not-a-header",
		"empty signatures": "t=1767225600,v1=",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, VerifySignature(testSecret, payload, header), ErrInvalidSignature)
		})
	}
}

func TestVerifySignatureAcceptsAnyMatchingV1(t *testing.T) {
	payload := []byte(`{"ok":true}`)
	valid := SignPayload(testSecret, "1767225600", payload)

	// Stripe may send several v1 entries during secret rotation.
	header := "t=1767225600,v1=0000," + valid[len("t=1767225600,"):]
	assert.NoError(t, VerifySignature(testSecret, payload, header))
}

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent([]byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`))
	assert.NoError(t, err)
	assert.Equal(t, "checkout.session.completed", event.Type)

	_, err = ParseEvent([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseEvent([]byte(`{"type":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidEvent)
}
