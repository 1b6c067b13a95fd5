package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

func initDB(dir string) (*sql.DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dbPath := filepath.Join(dir, "telemetry.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: the recorder writes while exports read.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS telemetry (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		kind TEXT,
		callsign TEXT,
		aircraft_icao TEXT,
		departure_icao TEXT,
		arrival_icao TEXT,
		latitude REAL,
		longitude REAL,
		altitude REAL,
		ground_speed REAL,
		heading REAL,
		fuel_kg REAL,
		vertical_speed REAL,
		on_ground INTEGER,
		phase TEXT
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return db, nil
}
