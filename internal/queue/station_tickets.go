package queue

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"sapori-restaurant-service/internal/comanda"
)

const (
	EventsExchange = "sapori.events"

	StationTicketsQueue  = "sapori.station_tickets"
	StationTicketsDLX    = "sapori.station_tickets.dlx"
	StationTicketsDLQ    = "sapori.station_tickets.dlq"
	StationTicketsDeadRK = "dead"

	ComandaCreatedType = "comanda.created"
)

// ComandaCreatedEvent announces a routed ticket to the station consumers.
// RoutingKey is "comanda.created.kitchen" or "comanda.created.bar".
type ComandaCreatedEvent struct {
	Type        string    `json:"type"`
	ComandaID   int64     `json:"comandaId"`
	TableNumber int64     `json:"tableNumber"`
	Station     string    `json:"station"`
	Items       string    `json:"items"`
	PlacedAt    time.Time `json:"placedAt"`
}

func RoutingKeyForStation(station comanda.Station) string {
	return ComandaCreatedType + "." + strings.ToLower(string(station))
}

// EnsureStationTicketsTopology declares the topic exchange comanda events
// are published to, the shared ticket queue, and its dead-letter pair.
func EnsureStationTicketsTopology(ctx context.Context, qc *Client) error {
	if qc == nil {
		return nil
	}

	if err := qc.EnsureExchangeKind(EventsExchange, "topic"); err != nil {
		return err
	}
	if err := qc.EnsureExchangeKind(StationTicketsDLX, "direct"); err != nil {
		return err
	}

	if _, err := qc.EnsureQueue(StationTicketsDLQ); err != nil {
		return err
	}
	if err := qc.BindQueue(StationTicketsDLQ, StationTicketsDLX, StationTicketsDeadRK); err != nil {
		return err
	}

	_, err := qc.EnsureQueueWithArgs(StationTicketsQueue, amqp.Table{
		"x-dead-letter-exchange":    StationTicketsDLX,
		"x-dead-letter-routing-key": StationTicketsDeadRK,
	})
	if err != nil {
		return err
	}
	return qc.BindQueue(StationTicketsQueue, EventsExchange, ComandaCreatedType+".*")
}

// PublishComandaCreated fans a routed ticket out on the events exchange.
func PublishComandaCreated(ctx context.Context, qc *Client, evt ComandaCreatedEvent) error {
	if qc == nil {
		return nil
	}
	evt.Type = ComandaCreatedType
	return qc.PublishJSON(ctx, EventsExchange, RoutingKeyForStation(comanda.Station(evt.Station)), evt)
}

// ProcessEventToTickets persists one comanda.created event as a station
// notification row the station screens poll for.
func ProcessEventToTickets(ctx context.Context, db *pgxpool.Pool, body []byte) error {
	if db == nil {
		return nil
	}

	var evt ComandaCreatedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}
	if strings.TrimSpace(evt.Type) == "" {
		// unknown envelope
		return nil
	}
	if evt.Type != ComandaCreatedType {
		// ignore
		return nil
	}

	query := `
		insert into station_notifications (comanda_id, station, table_number, items, created_at)
		values ($1, $2, $3, $4, $5)
		on conflict do nothing
	`
	_, err := db.Exec(ctx, query, evt.ComandaID, evt.Station, evt.TableNumber, evt.Items, evt.PlacedAt)
	return err
}
