package postgres

const (
	// queryAppendEvent inserts the next version only while the aggregate's highest
	// version still equals the expected one. A lost race surfaces either as the WHERE
	// guard filtering the row or as the (aggregate_id, version) conflict; both return
	// no row.
	queryAppendEvent = `
		INSERT INTO events (aggregate_id, aggregate_type, version, type, payload, created_at)
		SELECT $1::uuid, $2::text, $3::bigint, $4::text, $5::jsonb, $6::bigint
		WHERE (
			SELECT COALESCE(MAX(version), 0) FROM events WHERE aggregate_id = $1::uuid
		) = $7::bigint
		ON CONFLICT (aggregate_id, version) DO NOTHING
		RETURNING ingest_seq
	`

	queryReadEventsFrom = `
		SELECT aggregate_id, aggregate_type, version, type, payload, created_at, ingest_seq
		FROM events
		WHERE aggregate_id = $1 AND version > $2
		ORDER BY version ASC
		LIMIT $3
	`

	queryPendingEvents = `
		SELECT aggregate_id, aggregate_type, version, type, payload, created_at, ingest_seq
		FROM (
			SELECT e.aggregate_id, e.aggregate_type, e.version, e.type, e.payload, e.created_at, e.ingest_seq,
				ROW_NUMBER() OVER (PARTITION BY e.aggregate_id ORDER BY e.version ASC) AS rn
			FROM events e
			LEFT JOIN projection_offsets o
				ON o.subscriber = $1 AND o.aggregate_id = e.aggregate_id
			WHERE e.aggregate_type = $2
			  AND e.version > COALESCE(o.version, 0)
			  AND e.aggregate_id <> ALL($5::uuid[])
		) pending
		WHERE rn <= $3
		ORDER BY ingest_seq ASC
		LIMIT $4
	`

	queryCommitOffset = `
		INSERT INTO projection_offsets (subscriber, aggregate_id, version, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subscriber, aggregate_id)
		DO UPDATE SET
			version    = GREATEST(projection_offsets.version, EXCLUDED.version),
			updated_at = EXCLUDED.updated_at
	`

	queryReadOffset = `SELECT version FROM projection_offsets WHERE subscriber = $1 AND aggregate_id = $2`
)
