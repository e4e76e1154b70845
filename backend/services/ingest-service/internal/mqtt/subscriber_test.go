package mqtt

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"tankwatch/backend/services/ingest-service/internal/service"
)

func TestParseMessage(t *testing.T) {
	reading, err := ParseMessage("tanker/PB10AB1234/data", []byte(`{"fuel":42.5,"latitude":30.88,"longitude":75.92}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if reading.NumberPlate != "PB10AB1234" || reading.Fuel != 42.5 || reading.Point.Latitude != 30.88 || reading.Point.Longitude != 75.92 {
		t.Fatalf("unexpected reading %+v", reading)
	}
}

func TestParseMessageRejects(t *testing.T) {
	cases := []struct {
		name    string
		topic   string
		payload string
	}{
		{name: "wrong prefix", topic: "sensor/TN01/data", payload: `{"fuel":1,"latitude":1,"longitude":1}`},
		{name: "empty plate", topic: "tanker//data", payload: `{"fuel":1,"latitude":1,"longitude":1}`},
		{name: "bad json", topic: "tanker/TN01/data", payload: `{`},
		{name: "missing fuel", topic: "tanker/TN01/data", payload: `{"latitude":1,"longitude":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseMessage(tc.topic, []byte(tc.payload)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

type fakeIngester struct {
	readings []service.TankerReading
	err      error
}

func (f *fakeIngester) Ingest(_ context.Context, in service.TankerReading) (*service.TankerResult, error) {
	f.readings = append(f.readings, in)
	if f.err != nil {
		return nil, f.err
	}
	return &service.TankerResult{NumberPlate: in.NumberPlate, Status: "stable"}, nil
}

func TestProcessForwardsValidMessages(t *testing.T) {
	ing := &fakeIngester{}
	sub := NewSubscriber(Config{Broker: "tcp://localhost:1883"}, ing, zap.NewNop())

	sub.process(context.Background(), "tanker/TN01/data", []byte(`{"fuel":10,"latitude":1,"longitude":2}`))
	sub.process(context.Background(), "tanker/TN01/data", []byte(`not json`))

	if len(ing.readings) != 1 || ing.readings[0].NumberPlate != "TN01" {
		t.Fatalf("unexpected forwarded readings %+v", ing.readings)
	}

	ing.err = errors.New("db down")
	sub.process(context.Background(), "tanker/TN01/data", []byte(`{"fuel":10,"latitude":1,"longitude":2}`))
	if len(ing.readings) != 2 {
		t.Fatal("ingest errors should be logged, not panic")
	}
}
