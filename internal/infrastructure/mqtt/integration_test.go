//go:build integration

package mqtt

import (
	"testing"
	"time"
)

// These tests need a broker at 127.0.0.1:1883:
//
//	go test -tags=integration ./internal/infrastructure/mqtt/...

func TestIntegration_PublishSubscribeRoundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "doorlock-int-roundtrip"

	client, err := Connect(cfg, "door-int")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topics := Topics{UnitID: "door-int"}
	received := make(chan []byte, 1)
	err = client.Subscribe(topics.SimMotion(), 1, func(_ string, payload []byte) error {
		received <- payload
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(topics.SimMotion()) {
		t.Error("subscription not tracked")
	}

	if err := client.Publish(topics.SimMotion(), []byte("true"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if string(got) != "true" {
			t.Errorf("payload = %q, want true", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	if err := client.Unsubscribe(topics.SimMotion()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

func TestIntegration_PublishJSONState(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "doorlock-int-state"

	client, err := Connect(cfg, "door-int")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	state := map[string]any{"unit_id": "door-int", "attempts": 0}
	if err := client.PublishJSON(Topics{UnitID: "door-int"}.State(), state, true); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
}
