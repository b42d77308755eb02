package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/orders-tracker/internal/common"
	"github.com/joseph-ayodele/orders-tracker/internal/entity"
)

type ContactRepository interface {
	Create(ctx context.Context, c *entity.Contact) (*entity.Contact, error)
	List(ctx context.Context) ([]*entity.Contact, error)
	GetByName(ctx context.Context, name string) (*entity.Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Names(ctx context.Context) ([]string, error)
}

var contactColumns = []string{"id", "name", "phone", "note", "priority", "created_at"}

type contactRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewContactRepository(db *DB, logger *slog.Logger) ContactRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &contactRepository{db: db, logger: logger}
}

// Create inserts a contact. Names are unique; a duplicate yields ErrConflict.
func (r *contactRepository) Create(ctx context.Context, c *entity.Contact) (*entity.Contact, error) {
	out := *c
	out.Name = strings.TrimSpace(out.Name)
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	out.CreatedAt = time.Now().UTC()

	if _, err := r.GetByName(ctx, out.Name); err == nil {
		return nil, fmt.Errorf("contact %q: %w", out.Name, common.ErrConflict)
	}

	q, args := r.db.builder().Insert(contactsTable).
		Columns(contactColumns...).
		Values(out.ID.String(), out.Name, nullString(out.Phone), nullString(out.Note), out.Priority, formatTime(out.CreatedAt)).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to create contact", "name", out.Name, "error", err)
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &out, nil
}

// List returns contacts by descending priority, then name.
func (r *contactRepository) List(ctx context.Context) ([]*entity.Contact, error) {
	q, args := r.db.builder().Select(contactColumns...).
		From(entsql.Table(contactsTable)).
		OrderBy(entsql.Desc("priority"), "name").
		Query()
	contacts, err := r.scan(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to list contacts", "error", err)
		return nil, err
	}
	return contacts, nil
}

func (r *contactRepository) GetByName(ctx context.Context, name string) (*entity.Contact, error) {
	q, args := r.db.builder().Select(contactColumns...).
		From(entsql.Table(contactsTable)).
		Where(entsql.EQ("name", strings.TrimSpace(name))).
		Query()
	contacts, err := r.scan(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, fmt.Errorf("contact %q: %w", name, common.ErrNotFound)
	}
	return contacts[0], nil
}

func (r *contactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q, args := r.db.builder().Delete(contactsTable).Where(entsql.EQ("id", id.String())).Query()
	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("contact %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// Names returns the directory in List order, for the analyzer.
func (r *contactRepository) Names(ctx context.Context) ([]string, error) {
	contacts, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(contacts))
	for i, c := range contacts {
		names[i] = c.Name
	}
	return names, nil
}

func (r *contactRepository) scan(ctx context.Context, q string, args []any) ([]*entity.Contact, error) {
	rows, err := r.db.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Contact
	for rows.Next() {
		var (
			c             entity.Contact
			id, createdAt string
			phone, note   sql.NullString
		)
		if err := rows.Scan(&id, &c.Name, &phone, &note, &c.Priority, &createdAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("contact id %q: %w", id, err)
		}
		c.ID = parsed
		c.Phone = stringPtr(phone)
		c.Note = stringPtr(note)
		c.CreatedAt = parseTime(createdAt)
		out = append(out, &c)
	}
	return out, rows.Err()
}
