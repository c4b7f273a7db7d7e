package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/callbind/internal/ir"
)

// Snapshot describes one saved catalog.
type Snapshot struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Source      string `json:"source"`
	CatalogHash string `json:"catalog_hash"`
	IRVersion   string `json:"ir_version"`
}

// SaveCatalog stores cat as a new snapshot, which becomes the live catalog.
// If the live snapshot already has the same content hash, nothing is
// written and the live snapshot is returned.
//
// Signatures are stored as JSON with their content hash; call entries are
// stored one row each. The whole snapshot is written in one transaction.
func (s *Store) SaveCatalog(ctx context.Context, cat *ir.Catalog, source string) (Snapshot, error) {
	hash, err := ir.CatalogHash(cat)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save catalog: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save catalog: begin: %w", err)
	}
	defer tx.Rollback()

	latest, err := latestSnapshot(ctx, tx)
	switch {
	case err == nil && latest.CatalogHash == hash:
		s.logger.Debug("catalog unchanged", "id", latest.ID, "seq", latest.Seq, "source", source)
		return latest, nil
	case err != nil && !errors.Is(err, ErrNoCatalog):
		return Snapshot{}, fmt.Errorf("save catalog: %w", err)
	}

	snap := Snapshot{
		ID:          s.ids.Generate(),
		Seq:         latest.Seq + 1,
		Source:      source,
		CatalogHash: hash,
		IRVersion:   ir.IRVersion,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO catalogs (id, seq, source, catalog_hash, ir_version)
		VALUES (?, ?, ?, ?, ?)
	`, snap.ID, snap.Seq, snap.Source, snap.CatalogHash, snap.IRVersion)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save catalog: insert snapshot: %w", err)
	}

	for i := range cat.Signatures {
		if err := writeSignature(ctx, tx, snap.ID, &cat.Signatures[i]); err != nil {
			return Snapshot{}, fmt.Errorf("save catalog: %w", err)
		}
	}

	for _, e := range cat.Calls {
		if err := writeCallSite(ctx, tx, snap.ID, e); err != nil {
			return Snapshot{}, fmt.Errorf("save catalog: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("save catalog: commit: %w", err)
	}

	s.logger.Info("catalog saved",
		"id", snap.ID,
		"seq", snap.Seq,
		"source", source,
		"calls", len(cat.Calls),
		"signatures", len(cat.Signatures),
	)
	return snap, nil
}

func writeSignature(ctx context.Context, tx *sql.Tx, catalogID string, sig *ir.Signature) error {
	body, err := marshalSignature(sig)
	if err != nil {
		return err
	}
	hash, err := ir.SignatureHash(sig)
	if err != nil {
		return fmt.Errorf("signature %s: %w", sig.Target, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO signatures (catalog_id, target, hash, body)
		VALUES (?, ?, ?, ?)
	`, catalogID, sig.Target.QualifiedName(), hash, body)
	if err != nil {
		return fmt.Errorf("insert signature %s: %w", sig.Target, err)
	}
	return nil
}

func writeCallSite(ctx context.Context, tx *sql.Tx, catalogID string, e ir.CallEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO call_sites (catalog_id, call_type, call_name, target, variadic, implicit)
		VALUES (?, ?, ?, ?, ?, ?)
	`, catalogID, e.CallType, e.CallName, e.Target.QualifiedName(), e.Variadic, e.Implicit)
	if err != nil {
		return fmt.Errorf("insert call %s: %w", e.Key(), err)
	}
	return nil
}
