package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// psql builds queries with PostgreSQL-style $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// UpsertSatellite inserts or updates a satellite identity.
func (s *Store) UpsertSatellite(ctx context.Context, noradID int, name string) error {
	const query = `INSERT INTO satellites (norad_id, name) VALUES ($1, $2)
		ON CONFLICT (norad_id) DO UPDATE SET name = EXCLUDED.name`

	if _, err := s.db.ExecContext(ctx, query, noradID, name); err != nil {
		return fmt.Errorf("upsert satellite %d: %w", noradID, err)
	}
	return nil
}

// ListSatellites returns all cataloged satellites ordered by NORAD ID.
func (s *Store) ListSatellites(ctx context.Context) ([]Satellite, error) {
	query, args, err := psql.Select("norad_id", "name").
		From("satellites").
		OrderBy("norad_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list satellites: %w", err)
	}
	defer rows.Close()

	var sats []Satellite
	for rows.Next() {
		var sat Satellite
		if err := rows.Scan(&sat.NORADID, &sat.Name); err != nil {
			return nil, fmt.Errorf("scan satellite: %w", err)
		}
		sats = append(sats, sat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate satellites: %w", err)
	}
	return sats, nil
}

// InsertSnapshot appends one position snapshot.
func (s *Store) InsertSnapshot(ctx context.Context, snap Snapshot) error {
	const query = `INSERT INTO snapshots
		(norad_id, taken_at, pos_x, pos_y, pos_z, vel_x, vel_y, vel_z)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		snap.NORADID, snap.TakenAt,
		snap.Position[0], snap.Position[1], snap.Position[2],
		snap.Velocity[0], snap.Velocity[1], snap.Velocity[2],
	)
	if err != nil {
		return fmt.Errorf("insert snapshot for %d: %w", snap.NORADID, err)
	}
	return nil
}

// LatestSnapshots returns the most recent snapshot per satellite, capped at
// limit rows.
func (s *Store) LatestSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	const query = `SELECT DISTINCT ON (norad_id)
			norad_id, taken_at, pos_x, pos_y, pos_z, vel_x, vel_y, vel_z
		FROM snapshots
		ORDER BY norad_id, taken_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list latest snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.NORADID, &snap.TakenAt,
			&snap.Position[0], &snap.Position[1], &snap.Position[2],
			&snap.Velocity[0], &snap.Velocity[1], &snap.Velocity[2],
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// CreateStation inserts a ground station and returns its id.
func (s *Store) CreateStation(ctx context.Context, name *string, lat, lon float64) (int64, error) {
	const query = `INSERT INTO stations (name, lat, lon) VALUES ($1, $2, $3) RETURNING id`

	var id int64
	if err := s.db.QueryRowContext(ctx, query, name, lat, lon).Scan(&id); err != nil {
		return 0, fmt.Errorf("create station: %w", err)
	}
	return id, nil
}

// GetStation returns the station with the given id, or ErrNotFound.
func (s *Store) GetStation(ctx context.Context, id int64) (Station, error) {
	query, args, err := psql.Select("id", "name", "lat", "lon").
		From("stations").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return Station{}, fmt.Errorf("build query: %w", err)
	}

	var st Station
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&st.ID, &st.Name, &st.Lat, &st.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return Station{}, ErrNotFound
	}
	if err != nil {
		return Station{}, fmt.Errorf("get station %d: %w", id, err)
	}
	return st, nil
}

// ListStations returns all stations ordered by id.
func (s *Store) ListStations(ctx context.Context) ([]Station, error) {
	query, args, err := psql.Select("id", "name", "lat", "lon").
		From("stations").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var stations []Station
	for rows.Next() {
		var st Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Lat, &st.Lon); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}
	return stations, nil
}

// UpdateStation replaces a station's fields. ErrNotFound when no row matches.
func (s *Store) UpdateStation(ctx context.Context, id int64, name *string, lat, lon float64) error {
	const query = `UPDATE stations SET name = $1, lat = $2, lon = $3 WHERE id = $4`

	res, err := s.db.ExecContext(ctx, query, name, lat, lon, id)
	if err != nil {
		return fmt.Errorf("update station %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update station %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStation removes a station. ErrNotFound when no row matches.
func (s *Store) DeleteStation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete station %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete station %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
