package postgres

import (
	"database/sql"
	"fmt"

	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans a database row into an Event struct.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanEventRow(row scanner) (*v1.Event, error) {
	var evt v1.Event
	var payload []byte

	err := row.Scan(
		&evt.AggregateID,
		&evt.AggregateType,
		&evt.Version,
		&evt.Type,
		&payload,
		&evt.CreatedAt,
		&evt.IngestSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	evt.Payload = payload
	return &evt, nil
}

// scanEventRows drains rows into events and closes them.
func scanEventRows(rows *sql.Rows) ([]*v1.Event, error) {
	defer rows.Close()

	var events []*v1.Event
	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}
