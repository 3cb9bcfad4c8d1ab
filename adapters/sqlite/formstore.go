package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/pkg/formjson"
	"github.com/artpar/formgate/ports"
)

// FormStore implements ports.FormStore with SQLite. Each form is spread
// over the forms, sections, fields and dependencies tables and rebuilt
// through the section engine on load, so visibility is never read from disk.
type FormStore struct {
	db   *DB
	opts []form.SectionOption
}

// NewFormStore creates a form store. opts are applied to every section it
// loads.
func NewFormStore(db *DB, opts ...form.SectionOption) *FormStore {
	return &FormStore{db: db, opts: opts}
}

// fieldConfig holds the kind-specific parts of a field payload.
type fieldConfig struct {
	PossibleValues []string                    `json:"possibleValues,omitempty"`
	Validators     []formjson.ValidatorPayload `json:"validators,omitempty"`
}

// Get loads a form and all of its sections.
func (s *FormStore) Get(ctx context.Context, id string) (*form.Form, error) {
	doc := formjson.FormDocument{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT name, created_at, updated_at FROM forms WHERE id = ?`, id,
	).Scan(&doc.Name, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("form %q: %w", id, form.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get form %q: %w", id, err)
	}

	sections, err := s.loadSections(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Sections = sections

	f, err := formjson.DecodeForm(doc, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("rebuild form %q: %w", id, err)
	}
	return f, nil
}

func (s *FormStore) loadSections(ctx context.Context, formID string) ([]formjson.SectionDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM sections WHERE form_id = ? ORDER BY position`, formID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	var docs []formjson.SectionDocument
	index := make(map[string]int)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan section: %w", err)
		}
		index[id] = len(docs)
		docs = append(docs, formjson.SectionDocument{ID: id})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}

	if err := s.loadFields(ctx, formID, docs, index); err != nil {
		return nil, err
	}
	if err := s.loadDependencies(ctx, formID, docs, index); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *FormStore) loadFields(ctx context.Context, formID string, docs []formjson.SectionDocument, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section_id, id, field_type, required, value, config
		FROM fields WHERE form_id = ?
		ORDER BY section_id, position
	`, formID)
	if err != nil {
		return fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sectionID string
			p         formjson.FieldPayload
			value     sql.NullString
			config    string
		)
		if err := rows.Scan(&sectionID, &p.ID, &p.FieldType, &p.Required, &value, &config); err != nil {
			return fmt.Errorf("scan field: %w", err)
		}
		if value.Valid {
			p.Value = json.RawMessage(value.String)
		}
		var cfg fieldConfig
		if err := json.Unmarshal([]byte(config), &cfg); err != nil {
			return fmt.Errorf("field %q config: %w", p.ID, err)
		}
		p.PossibleValues = cfg.PossibleValues
		p.Validators = cfg.Validators

		i, ok := index[sectionID]
		if !ok {
			return fmt.Errorf("field %q references unknown section %q", p.ID, sectionID)
		}
		docs[i].Fields = append(docs[i].Fields, p)
	}
	return rows.Err()
}

func (s *FormStore) loadDependencies(ctx context.Context, formID string, docs []formjson.SectionDocument, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section_id, id, child_id, parent_id, parent_value
		FROM dependencies WHERE form_id = ?
		ORDER BY section_id, position
	`, formID)
	if err != nil {
		return fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sectionID string
			p         formjson.DependencyPayload
			trigger   sql.NullString
		)
		if err := rows.Scan(&sectionID, &p.ID, &p.ChildID, &p.ParentID, &trigger); err != nil {
			return fmt.Errorf("scan dependency: %w", err)
		}
		if trigger.Valid {
			p.ParentValue = json.RawMessage(trigger.String)
		}

		i, ok := index[sectionID]
		if !ok {
			return fmt.Errorf("dependency of %q references unknown section %q", p.ChildID, sectionID)
		}
		docs[i].Dependencies = append(docs[i].Dependencies, p)
	}
	return rows.Err()
}

// List returns summaries of all forms, oldest first.
func (s *FormStore) List(ctx context.Context) ([]ports.FormSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.name, f.created_at, f.updated_at,
			(SELECT COUNT(*) FROM sections s WHERE s.form_id = f.id),
			(SELECT COUNT(*) FROM fields fl WHERE fl.form_id = f.id)
		FROM forms f
		ORDER BY f.created_at, f.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	out := []ports.FormSummary{}
	for rows.Next() {
		var sum ports.FormSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.CreatedAt, &sum.UpdatedAt, &sum.Sections, &sum.Fields); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Save writes the form in one transaction, replacing all of its rows.
func (s *FormStore) Save(ctx context.Context, f *form.Form) error {
	doc, err := formjson.EncodeForm(f)
	if err != nil {
		return fmt.Errorf("save form %q: %w", f.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO forms (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
	`, doc.ID, doc.Name, doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert form %q: %w", f.ID, err)
	}
	if err := deleteChildren(ctx, tx, f.ID); err != nil {
		return err
	}

	for i, sd := range doc.Sections {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sections (form_id, id, position) VALUES (?, ?, ?)`,
			f.ID, sd.ID, i); err != nil {
			return fmt.Errorf("insert section %q: %w", sd.ID, err)
		}
		if err := insertFields(ctx, tx, f.ID, sd); err != nil {
			return err
		}
		if err := insertDependencies(ctx, tx, f.ID, sd); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit form %q: %w", f.ID, err)
	}
	return nil
}

func insertFields(ctx context.Context, tx *sql.Tx, formID string, sd formjson.SectionDocument) error {
	for i, p := range sd.Fields {
		config, err := json.Marshal(fieldConfig{PossibleValues: p.PossibleValues, Validators: p.Validators})
		if err != nil {
			return fmt.Errorf("encode field %q config: %w", p.ID, err)
		}
		var value sql.NullString
		if p.Value != nil {
			value = sql.NullString{String: string(p.Value), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fields (form_id, section_id, id, position, field_type, required, value, config)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, formID, sd.ID, p.ID, i, p.FieldType, p.Required, value, string(config)); err != nil {
			return fmt.Errorf("insert field %q: %w", p.ID, err)
		}
	}
	return nil
}

func insertDependencies(ctx context.Context, tx *sql.Tx, formID string, sd formjson.SectionDocument) error {
	for i, p := range sd.Dependencies {
		var trigger sql.NullString
		if p.ParentValue != nil {
			trigger = sql.NullString{String: string(p.ParentValue), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dependencies (form_id, section_id, child_id, id, parent_id, parent_value, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, formID, sd.ID, p.ChildID, p.ID, p.ParentID, trigger, i); err != nil {
			return fmt.Errorf("insert dependency of %q: %w", p.ChildID, err)
		}
	}
	return nil
}

func deleteChildren(ctx context.Context, tx *sql.Tx, formID string) error {
	for _, table := range []string{"dependencies", "fields", "sections"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE form_id = ?`, formID); err != nil {
			return fmt.Errorf("clear %s of form %q: %w", table, formID, err)
		}
	}
	return nil
}

// Delete removes a form and all of its rows.
func (s *FormStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM forms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete form %q: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("form %q: %w", id, form.ErrNotFound)
	}
	if err := deleteChildren(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *FormStore) Close() error {
	return s.db.Close()
}

var _ ports.FormStore = (*FormStore)(nil)
