package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"fitbusiness/internal/platform/crypto"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore writes events to the audit_events table. Before/after
// snapshots are sealed with the crypto service when a key is configured.
type PostgresStore struct {
	DB     DBTX
	Crypto *crypto.Service
}

func NewPostgresStore(db DBTX, crypto *crypto.Service) *PostgresStore {
	return &PostgresStore{DB: db, Crypto: crypto}
}

func (s *PostgresStore) Insert(ctx context.Context, evt Event) error {
	beforeEnc, err := s.Crypto.Encrypt(evt.Before)
	if err != nil {
		return fmt.Errorf("seal audit before: %w", err)
	}
	afterEnc, err := s.Crypto.Encrypt(evt.After)
	if err != nil {
		return fmt.Errorf("seal audit after: %w", err)
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (id, company_id, actor_user_id, actor_role, action, entity_type, entity_id, before_data, after_data, request_id, ip, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
  `, evt.ID, evt.CompanyID, evt.ActorID, evt.ActorRole, evt.Action, evt.EntityType, evt.EntityID, beforeEnc, afterEnc, evt.RequestID, evt.IP, evt.CreatedAt)
	return err
}

func (s *PostgresStore) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	selectCols := "id, company_id, actor_user_id, actor_role, action, entity_type, entity_id, request_id, ip, created_at"
	if includeDetails {
		selectCols += ", before_data, after_data"
	}
	query, args := buildBaseQuery("SELECT "+selectCols, filter)
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.CompanyID, &evt.ActorID, &evt.ActorRole, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		var beforeEnc, afterEnc []byte
		if includeDetails {
			dest = append(dest, &beforeEnc, &afterEnc)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if includeDetails {
			if evt.Before, err = s.Crypto.Decrypt(beforeEnc); err != nil {
				return nil, fmt.Errorf("open audit before %s: %w", evt.ID, err)
			}
			if evt.After, err = s.Crypto.Decrypt(afterEnc); err != nil {
				return nil, fmt.Errorf("open audit after %s: %w", evt.ID, err)
			}
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.ActorUser != "" {
		args = append(args, filter.ActorUser)
		query += fmt.Sprintf(" AND actor_user_id = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	return query, args
}
