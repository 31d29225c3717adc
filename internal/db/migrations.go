package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type migration struct {
	name string
	sql  string
}

// Applied in order at startup; each runs at most once per database.
var migrations = []migration{
	{
		name: "001_staff",
		sql: `
			create table if not exists staff (
				id bigserial primary key,
				name text not null,
				email text not null unique,
				password_hash text not null,
				role text not null default 'SERVER',
				is_active boolean not null default true,
				created_at timestamptz not null default now()
			)
		`,
	},
	{
		name: "002_menu_items",
		sql: `
			create table if not exists menu_items (
				id bigserial primary key,
				name text not null,
				description text,
				price numeric(10,2) not null check (price >= 0),
				category text not null default '',
				station text not null default '',
				available boolean not null default true,
				allergens text,
				image_url text,
				updated_at timestamptz not null default now()
			)
		`,
	},
	{
		name: "003_tables",
		sql: `
			create table if not exists tables (
				id bigserial primary key,
				number integer not null unique check (number > 0),
				status text not null default 'FREE',
				seats integer not null check (seats > 0),
				notes text
			)
		`,
	},
	{
		name: "004_reservations",
		sql: `
			create table if not exists reservations (
				id bigserial primary key,
				customer_name text not null,
				phone text not null default '',
				party_size integer not null check (party_size > 0),
				reserved_at timestamptz not null,
				notes text,
				table_id bigint references tables(id) on delete set null
			)
		`,
	},
	{
		name: "005_comandas",
		sql: `
			create table if not exists comandas (
				id bigserial primary key,
				table_id bigint not null references tables(id),
				items text not null,
				total numeric(10,2) not null check (total >= 0),
				station text not null,
				status text not null default 'PENDING',
				placed_at timestamptz not null default now(),
				notes text,
				server_id bigint not null references staff(id)
			)
		`,
	},
	{
		name: "006_comanda_items",
		sql: `
			create table if not exists comanda_items (
				id bigserial primary key,
				comanda_id bigint not null references comandas(id) on delete cascade,
				menu_item_id bigint references menu_items(id),
				name text not null,
				unit_price numeric(10,2) not null,
				quantity integer not null check (quantity > 0),
				subtotal numeric(10,2) not null
			)
		`,
	},
	{
		name: "007_station_notifications",
		sql: `
			create table if not exists station_notifications (
				id bigserial primary key,
				comanda_id bigint not null,
				station text not null,
				table_number integer not null,
				items text not null,
				created_at timestamptz not null default now(),
				acknowledged boolean not null default false,
				unique (comanda_id, station)
			)
		`,
	},
	{
		name: "008_comanda_indexes",
		sql: `
			create index if not exists idx_comandas_table_status on comandas(table_id, status);
			create index if not exists idx_comandas_status_placed on comandas(status, placed_at);
			create index if not exists idx_reservations_day on reservations(reserved_at)
		`,
	},
}

func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		create table if not exists schema_migrations (
			id serial primary key,
			migration_name text not null unique,
			applied_at timestamptz not null default now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := pool.Query(ctx, `select migration_name from schema_migrations`)
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		applied[name] = true
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.name] {
			continue
		}
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("run migration %s: %w", m.name, err)
		}
		if _, err := pool.Exec(ctx, `insert into schema_migrations (migration_name) values ($1)`, m.name); err != nil {
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
	}

	return nil
}
