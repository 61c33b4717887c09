package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const runColumns = `id, seq, system_hash, inputs, inputs_hash, variable, label, value,
	total_strength, firings, error_code, error_message, engine_version`

// GetSystem retrieves a system definition by hash.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) GetSystem(ctx context.Context, hash string) (SystemRecord, error) {
	var rec SystemRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, name, description, definition, ir_version
		FROM systems
		WHERE hash = ?
	`, hash).Scan(&rec.Hash, &rec.Name, &rec.Description, &rec.Definition, &rec.IRVersion)
	if err != nil {
		return SystemRecord{}, fmt.Errorf("get system %s: %w", hash, err)
	}
	return rec, nil
}

// ListSystems returns all stored systems ordered by name, then hash.
func (s *Store) ListSystems(ctx context.Context) ([]SystemRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, name, description, definition, ir_version
		FROM systems
		ORDER BY name COLLATE BINARY ASC, hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query systems: %w", err)
	}
	defer rows.Close()

	systems := []SystemRecord{}
	for rows.Next() {
		var rec SystemRecord
		if err := rows.Scan(&rec.Hash, &rec.Name, &rec.Description, &rec.Definition, &rec.IRVersion); err != nil {
			return nil, fmt.Errorf("scan system: %w", err)
		}
		systems = append(systems, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate systems: %w", err)
	}
	return systems, nil
}

// GetRun retrieves a single run by ID.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// ListRuns returns runs ordered by seq ASC, id COLLATE BINARY ASC.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.SystemHash != "" {
		where = append(where, "system_hash = ?")
		args = append(args, filter.SystemHash)
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if filter.Limit > 0 {
		// Most recent n, then back to ascending order.
		query = `SELECT * FROM (` + query + ` ORDER BY seq DESC LIMIT ?)`
		args = append(args, filter.Limit)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		rec                  RunRecord
		inputs, firings      string
		variable, label      sql.NullString
		errCode, errMsg      sql.NullString
		value, totalStrength sql.NullFloat64
	)
	err := row.Scan(
		&rec.ID, &rec.Seq, &rec.SystemHash, &inputs, &rec.InputsHash,
		&variable, &label, &value, &totalStrength,
		&firings, &errCode, &errMsg, &rec.EngineVersion,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	if rec.Inputs, err = unmarshalInputs(inputs); err != nil {
		return RunRecord{}, err
	}

	if errCode.Valid {
		rec.Error = &RunError{Code: errCode.String, Message: errMsg.String}
		return rec, nil
	}

	fr, err := unmarshalFirings(firings)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Output = &RunOutput{
		Variable:      variable.String,
		Label:         label.String,
		Value:         value.Float64,
		TotalStrength: totalStrength.Float64,
		Firings:       fr,
	}
	return rec, nil
}
