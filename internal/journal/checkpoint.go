package journal

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/store"
)

// ErrNoCheckpoint is returned when the journal holds no checkpoint yet.
var ErrNoCheckpoint = errors.New("journal: no checkpoint")

// Checkpoint describes one saved image.
type Checkpoint struct {
	ID      string `json:"id"`
	Seq     int64  `json:"seq"`
	Stores  int    `json:"stores"`
	Records int    `json:"records"`
}

// storeImage is one store serialised for writing.
type storeImage struct {
	name       string
	definition []byte
	records    [][]byte
	digest     string
}

// Checkpoint writes every store of base to the journal, replacing the
// previous image, and returns the new checkpoint. The write is a single
// transaction: a failure leaves the previous image intact.
//
// Records added to a store while it is being captured may or may not be
// included.
func (j *Journal) Checkpoint(ctx context.Context, base *store.Base) (Checkpoint, error) {
	var images []storeImage
	total := 0
	for _, s := range base.Stores() {
		img, err := captureStore(s)
		if err != nil {
			return Checkpoint{}, fmt.Errorf("checkpoint: %w", err)
		}
		total += len(img.records)
		images = append(images, img)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM checkpoints`).Scan(&seq); err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: next seq: %w", err)
	}

	cp := Checkpoint{ID: j.ids.Generate(), Seq: seq, Stores: len(images), Records: total}

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: clear records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stores`); err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: clear stores: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO checkpoints (id, seq, store_count, record_count)
		VALUES (?, ?, ?, ?)
	`, cp.ID, cp.Seq, cp.Stores, cp.Records); err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: write checkpoint: %w", err)
	}

	insertRecord, err := tx.PrepareContext(ctx, `
		INSERT INTO records (store_name, rec_id, data) VALUES (?, ?, ?)
	`)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: prepare: %w", err)
	}
	defer insertRecord.Close()

	for pos, img := range images {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stores (name, position, definition, digest, checkpoint_id)
			VALUES (?, ?, ?, ?, ?)
		`, img.name, pos, string(img.definition), img.digest, cp.ID); err != nil {
			return Checkpoint{}, fmt.Errorf("checkpoint: write store %s: %w", img.name, err)
		}
		for id, rec := range img.records {
			if _, err := insertRecord.ExecContext(ctx, img.name, id, string(rec)); err != nil {
				return Checkpoint{}, fmt.Errorf("checkpoint: write %s/%d: %w", img.name, id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: commit: %w", err)
	}
	return cp, nil
}

func captureStore(s *store.Store) (storeImage, error) {
	def, err := json.Marshal(s.Def())
	if err != nil {
		return storeImage{}, fmt.Errorf("store %s: encode definition: %w", s.Name(), err)
	}

	img := storeImage{name: s.Name(), definition: def}
	d := newDigest(DomainStoreImage)
	var encErr error
	if err := s.Each(func(r *store.Ref) bool {
		data, err := r.MarshalExact()
		if err != nil {
			encErr = fmt.Errorf("store %s: encode record %d: %w", s.Name(), r.ID(), err)
			return false
		}
		d.add(data)
		img.records = append(img.records, data)
		return true
	}); err != nil {
		return storeImage{}, err
	}
	if encErr != nil {
		return storeImage{}, encErr
	}
	img.digest = d.sum()
	return img, nil
}

// LatestCheckpoint returns the checkpoint with the highest seq, or
// ErrNoCheckpoint.
func (j *Journal) LatestCheckpoint(ctx context.Context) (Checkpoint, error) {
	var cp Checkpoint
	err := j.db.QueryRowContext(ctx, `
		SELECT id, seq, store_count, record_count
		FROM checkpoints
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&cp.ID, &cp.Seq, &cp.Stores, &cp.Records)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, ErrNoCheckpoint
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("latest checkpoint: %w", err)
	}
	return cp, nil
}

// Checkpoints returns every checkpoint in seq order.
// Returns an empty slice (not nil) if there are none.
func (j *Journal) Checkpoints(ctx context.Context) ([]Checkpoint, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, seq, store_count, record_count
		FROM checkpoints
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	out := []Checkpoint{}
	for rows.Next() {
		var cp Checkpoint
		if err := rows.Scan(&cp.ID, &cp.Seq, &cp.Stores, &cp.Records); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return out, nil
}

// Restore rebuilds a base from the latest image. Stores are created in
// their original order and records are re-added in id order, so every
// record gets back its original id. Returns ErrNoCheckpoint if nothing was
// ever checkpointed.
func (j *Journal) Restore(ctx context.Context) (*store.Base, error) {
	if _, err := j.LatestCheckpoint(ctx); err != nil {
		return nil, err
	}

	type storeRow struct {
		name   string
		def    string
		digest string
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT name, definition, digest FROM stores ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("restore: query stores: %w", err)
	}
	var stores []storeRow
	for rows.Next() {
		var r storeRow
		if err := rows.Scan(&r.name, &r.def, &r.digest); err != nil {
			rows.Close()
			return nil, fmt.Errorf("restore: scan store: %w", err)
		}
		stores = append(stores, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("restore: iterate stores: %w", err)
	}

	base := store.NewBase()
	for _, r := range stores {
		var def schema.StoreDef
		if err := json.Unmarshal([]byte(r.def), &def); err != nil {
			return nil, fmt.Errorf("restore: decode definition of %s: %w", r.name, err)
		}
		s, err := base.CreateStore(def)
		if err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
		if err := j.restoreRecords(ctx, s, r.digest); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	}
	return base, nil
}

func (j *Journal) restoreRecords(ctx context.Context, s *store.Store, want string) error {
	rows, err := j.db.QueryContext(ctx, `
		SELECT rec_id, data FROM records WHERE store_name = ? ORDER BY rec_id ASC
	`, s.Name())
	if err != nil {
		return fmt.Errorf("query records of %s: %w", s.Name(), err)
	}
	defer rows.Close()

	d := newDigest(DomainStoreImage)
	for rows.Next() {
		var (
			recID int64
			data  string
		)
		if err := rows.Scan(&recID, &data); err != nil {
			return fmt.Errorf("scan record of %s: %w", s.Name(), err)
		}
		d.add([]byte(data))

		input, err := decodeRecord(data)
		if err != nil {
			return fmt.Errorf("decode %s/%d: %w", s.Name(), recID, err)
		}
		id, err := s.Add(input)
		if err != nil {
			return fmt.Errorf("re-add %s/%d: %w", s.Name(), recID, err)
		}
		if id != recID {
			return fmt.Errorf("store %s: record %d restored as %d, image has a gap", s.Name(), recID, id)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate records of %s: %w", s.Name(), err)
	}

	if got := d.sum(); got != want {
		return fmt.Errorf("store %s: digest mismatch: image %s, records %s", s.Name(), want, got)
	}
	return nil
}

func decodeRecord(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var input map[string]any
	if err := dec.Decode(&input); err != nil {
		return nil, err
	}
	return input, nil
}
