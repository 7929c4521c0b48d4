package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"loadboard/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LoadRepository defines operations for the loads collection
type LoadRepository interface {
	Create(ctx context.Context, fields model.LoadFields) (string, error)
	FindByID(ctx context.Context, id string) (*model.Load, error)
	FindAll(ctx context.Context) ([]model.Load, error)
	Update(ctx context.Context, id string, patch model.LoadPatch) error
	Delete(ctx context.Context, id string) error
}

type loadRepository struct {
	db    DBTX
	now   func() time.Time
	newID func() string
}

// NewLoadRepository creates a new LoadRepository
func NewLoadRepository(db DBTX) LoadRepository {
	return &loadRepository{
		db:    db,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

const loadColumns = `id, current_location, destination_location, weight, length, contact_phone,
            contact_email, receipt_url, created_at, updated_at, deleted_at`

// Create inserts a new load and returns its generated id. Both created_at
// and updated_at are stamped.
func (r *loadRepository) Create(ctx context.Context, f model.LoadFields) (string, error) {
	id := r.newID()
	now := r.now()
	sql := `INSERT INTO loads (id, current_location, destination_location, weight, length,
            contact_phone, contact_email, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, sql, id, f.CurrentLocation, f.DestinationLocation, f.Weight,
		f.Dimensions.Length, f.ContactDetails.Phone, f.ContactDetails.Email, now, now)
	if err != nil {
		return "", storeErr("create load", err)
	}
	return id, nil
}

// FindByID retrieves a load by its id
func (r *loadRepository) FindByID(ctx context.Context, id string) (*model.Load, error) {
	sql := `SELECT ` + loadColumns + ` FROM loads WHERE id = $1`
	l, err := scanLoad(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storeErr("find load", ErrNotFound)
		}
		return nil, storeErr("find load", err)
	}
	return l, nil
}

// FindAll retrieves every load, newest first
func (r *loadRepository) FindAll(ctx context.Context) ([]model.Load, error) {
	sql := `SELECT ` + loadColumns + ` FROM loads ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, storeErr("list loads", err)
	}
	defer rows.Close()

	loads := []model.Load{}
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, storeErr("scan load row", err)
		}
		loads = append(loads, *l)
	}
	if err = rows.Err(); err != nil {
		return nil, storeErr("iterate load rows", err)
	}
	return loads, nil
}

// Update applies a partial update and stamps updated_at
func (r *loadRepository) Update(ctx context.Context, id string, p model.LoadPatch) error {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("UPDATE loads SET ")

	var set []string
	var args []any
	argCount := 1
	add := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argCount))
		args = append(args, value)
		argCount++
	}

	if p.CurrentLocation != nil {
		add("current_location", *p.CurrentLocation)
	}
	if p.DestinationLocation != nil {
		add("destination_location", *p.DestinationLocation)
	}
	if p.Weight != nil {
		add("weight", *p.Weight)
	}
	if p.Length != nil {
		add("length", *p.Length)
	}
	if p.Phone != nil {
		add("contact_phone", *p.Phone)
	}
	if p.Email != nil {
		add("contact_email", *p.Email)
	}
	add("updated_at", r.now())

	queryBuilder.WriteString(strings.Join(set, ", "))
	queryBuilder.WriteString(fmt.Sprintf(" WHERE id = $%d", argCount))
	args = append(args, id)

	cmdTag, err := r.db.Exec(ctx, queryBuilder.String(), args...)
	if err != nil {
		return storeErr("update load", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return storeErr("update load", ErrNotFound)
	}
	return nil
}

// Delete removes a load. Deletes are hard; deleted_at is never set.
func (r *loadRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM loads WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete load", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return storeErr("delete load", ErrNotFound)
	}
	return nil
}

func scanLoad(row pgx.Row) (*model.Load, error) {
	l := &model.Load{}
	err := row.Scan(
		&l.ID, &l.CurrentLocation, &l.DestinationLocation, &l.Weight, &l.Dimensions.Length,
		&l.ContactDetails.Phone, &l.ContactDetails.Email, &l.ReceiptURL,
		&l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}
