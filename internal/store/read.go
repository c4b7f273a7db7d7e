package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/callbind/internal/binder"
	"github.com/roach88/callbind/internal/ir"
)

// ErrNoCatalog is returned when the store holds no snapshot yet.
var ErrNoCatalog = errors.New("no catalog saved")

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Latest returns the live snapshot.
func (s *Store) Latest(ctx context.Context) (Snapshot, error) {
	return latestSnapshot(ctx, s.db)
}

func latestSnapshot(ctx context.Context, q querier) (Snapshot, error) {
	var snap Snapshot
	err := q.QueryRowContext(ctx, `
		SELECT id, seq, source, catalog_hash, ir_version
		FROM catalogs
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&snap.ID, &snap.Seq, &snap.Source, &snap.CatalogHash, &snap.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoCatalog
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("query latest snapshot: %w", err)
	}
	return snap, nil
}

// Snapshots returns every saved snapshot, oldest first.
// Returns an empty slice (not nil) if none exist.
func (s *Store) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, source, catalog_hash, ir_version
		FROM catalogs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Seq, &snap.Source, &snap.CatalogHash, &snap.IRVersion); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// Describe implements binder.Oracle against the live snapshot.
func (s *Store) Describe(ctx context.Context, ref ir.CallableRef) (*ir.Signature, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT sig.body
		FROM signatures sig
		JOIN catalogs c ON c.id = sig.catalog_id
		WHERE sig.target = ?
		  AND c.seq = (SELECT MAX(seq) FROM catalogs)
	`, ref.QualifiedName()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", binder.ErrCallableNotFound, ref.QualifiedName())
	}
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", ref.QualifiedName(), err)
	}
	return unmarshalSignature(body)
}

// LookupCall implements binder.Registry against the live snapshot.
func (s *Store) LookupCall(ctx context.Context, callType, name string) (ir.CallEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT cs.call_type, cs.call_name, cs.target, cs.variadic, cs.implicit
		FROM call_sites cs
		JOIN catalogs c ON c.id = cs.catalog_id
		WHERE cs.call_type = ? AND cs.call_name = ?
		  AND c.seq = (SELECT MAX(seq) FROM catalogs)
	`, callType, name)

	e, err := scanCallSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.CallEntry{}, fmt.Errorf("%w: %s", binder.ErrUnknownCall, ir.CallKey(callType, name))
	}
	if err != nil {
		return ir.CallEntry{}, fmt.Errorf("lookup %s: %w", ir.CallKey(callType, name), err)
	}
	return e, nil
}

// ListCalls returns the live snapshot's call entries ordered by call type,
// then name. Returns an empty slice (not nil) if there are none.
func (s *Store) ListCalls(ctx context.Context) ([]ir.CallEntry, error) {
	return listCalls(ctx, s.db)
}

func listCalls(ctx context.Context, q querier) ([]ir.CallEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT cs.call_type, cs.call_name, cs.target, cs.variadic, cs.implicit
		FROM call_sites cs
		JOIN catalogs c ON c.id = cs.catalog_id
		WHERE c.seq = (SELECT MAX(seq) FROM catalogs)
		ORDER BY cs.call_type COLLATE BINARY ASC, cs.call_name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []ir.CallEntry{}
	for rows.Next() {
		e, err := scanCallSite(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// LoadCatalog rebuilds the live snapshot as a Catalog.
func (s *Store) LoadCatalog(ctx context.Context) (*ir.Catalog, error) {
	if _, err := s.Latest(ctx); err != nil {
		return nil, err
	}

	calls, err := listCalls(ctx, s.db)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sig.body
		FROM signatures sig
		JOIN catalogs c ON c.id = sig.catalog_id
		WHERE c.seq = (SELECT MAX(seq) FROM catalogs)
		ORDER BY sig.target COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query signatures: %w", err)
	}
	defer rows.Close()

	sigs := []ir.Signature{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		sig, err := unmarshalSignature(body)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, *sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}

	return &ir.Catalog{Calls: calls, Signatures: sigs}, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallSite(row rowScanner) (ir.CallEntry, error) {
	var (
		e        ir.CallEntry
		target   string
		variadic bool
	)
	if err := row.Scan(&e.CallType, &e.CallName, &target, &variadic, &e.Implicit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.CallEntry{}, err
		}
		return ir.CallEntry{}, fmt.Errorf("scan call site: %w", err)
	}

	ref, err := ir.ParseCallableRef(target)
	if err != nil {
		return ir.CallEntry{}, fmt.Errorf("call %s: %w", e.Key(), err)
	}
	e.Target = ref
	e.Variadic = variadic
	return e, nil
}
