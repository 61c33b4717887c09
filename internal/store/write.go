package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/fuzzkit/internal/ir"
)

// WriteSystem stores a system definition.
// Uses ON CONFLICT(hash) DO NOTHING: the hash is the content, so writing the
// same definition twice is a no-op.
func (s *Store) WriteSystem(ctx context.Context, rec SystemRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO systems (hash, name, description, definition, ir_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		rec.Hash,
		rec.Name,
		rec.Description,
		rec.Definition,
		rec.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write system: %w", err)
	}
	return nil
}

// WriteRun appends a run and returns its seq.
//
// seq is MAX(seq)+1, assigned inside the insert transaction so concurrent
// writers through one Store never share a number. Writing a run whose ID
// already exists is a no-op that returns the existing seq.
//
// Note: the system referenced by SystemHash must exist (foreign key).
func (s *Store) WriteRun(ctx context.Context, rec RunRecord) (int64, error) {
	if (rec.Output == nil) == (rec.Error == nil) {
		return 0, fmt.Errorf("write run %s: exactly one of output and error must be set", rec.ID)
	}

	inputsJSON, err := marshalInputs(rec.Inputs)
	if err != nil {
		return 0, fmt.Errorf("write run %s: %w", rec.ID, err)
	}
	inputsHash := rec.InputsHash
	if inputsHash == "" {
		if inputsHash, err = ir.InputsHash(rec.Inputs); err != nil {
			return 0, fmt.Errorf("write run %s: %w", rec.ID, err)
		}
	}

	var (
		variable, label, errCode, errMsg sql.NullString
		value, total                     sql.NullFloat64
		firingsJSON                      = "[]"
	)
	if out := rec.Output; out != nil {
		variable = sql.NullString{String: out.Variable, Valid: true}
		label = sql.NullString{String: out.Label, Valid: true}
		value = sql.NullFloat64{Float64: out.Value, Valid: true}
		total = sql.NullFloat64{Float64: out.TotalStrength, Valid: true}
		if firingsJSON, err = marshalFirings(out.Firings); err != nil {
			return 0, fmt.Errorf("write run %s: %w", rec.ID, err)
		}
	} else {
		errCode = sql.NullString{String: rec.Error.Code, Valid: true}
		errMsg = sql.NullString{String: rec.Error.Message, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run %s: begin tx: %w", rec.ID, err)
	}
	defer tx.Rollback() // No-op if committed

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, rec.ID).Scan(&existing)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("write run %s: lookup: %w", rec.ID, err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write run %s: next seq: %w", rec.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, system_hash, inputs, inputs_hash, variable, label, value, total_strength,
		 firings, error_code, error_message, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		seq,
		rec.SystemHash,
		inputsJSON,
		inputsHash,
		variable,
		label,
		value,
		total,
		firingsJSON,
		errCode,
		errMsg,
		rec.EngineVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("write run %s: %w", rec.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run %s: commit: %w", rec.ID, err)
	}
	return seq, nil
}
