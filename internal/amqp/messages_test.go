package amqp

import "testing"

func TestPerubahanMessageRoundTrip(t *testing.T) {
	msg := NewPerubahanMessage(EntityJemaat, 42, OpUpdate)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := PerubahanMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Entity != EntityJemaat || got.ID != 42 || got.Op != OpUpdate {
		t.Errorf("round trip = %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestPerubahanMessageFromJSONInvalid(t *testing.T) {
	if _, err := PerubahanMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("want error for malformed payload")
	}
}
