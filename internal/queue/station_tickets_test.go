package queue

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"sapori-restaurant-service/internal/comanda"
)

func TestRoutingKeyForStation(t *testing.T) {
	cases := []struct {
		station  comanda.Station
		expected string
	}{
		{comanda.StationKitchen, "comanda.created.kitchen"},
		{comanda.StationBar, "comanda.created.bar"},
	}

	for _, tc := range cases {
		if got := RoutingKeyForStation(tc.station); got != tc.expected {
			t.Fatalf("expected %s, got %s", tc.expected, got)
		}
	}
}

func TestGetRetryCount(t *testing.T) {
	cases := []struct {
		name     string
		headers  amqp.Table
		expected int
	}{
		{name: "nil headers", headers: nil, expected: 0},
		{name: "missing key", headers: amqp.Table{}, expected: 0},
		{name: "int32 value", headers: amqp.Table{"x-retry-count": int32(2)}, expected: 2},
		{name: "int64 value", headers: amqp.Table{"x-retry-count": int64(3)}, expected: 3},
		{name: "int value", headers: amqp.Table{"x-retry-count": 1}, expected: 1},
		{name: "unexpected type", headers: amqp.Table{"x-retry-count": "two"}, expected: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := getRetryCount(tc.headers); got != tc.expected {
				t.Fatalf("expected %d, got %d", tc.expected, got)
			}
		})
	}
}
