package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"rosterhub/internal/app/activity"
)

// ActivityStore implements activity.Store on PostgreSQL.
type ActivityStore struct {
	pool *pgxpool.Pool
}

// NewActivityStore creates an ActivityStore.
func NewActivityStore(pool *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

// AddEntry records rec. When a student id is given without a name, the student's
// current name is stored so the entry stays readable after the student is deleted.
func (s *ActivityStore) AddEntry(ctx context.Context, rec activity.Record) (*activity.Entry, error) {
	uid, err := uuid.Parse(rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("add entry: invalid user id %q", rec.UserID)
	}

	var (
		e  activity.Entry
		id uuid.UUID
		by uuid.UUID
	)

	err = s.pool.QueryRow(ctx, `
		INSERT INTO activity_logs (id, user_id, action_type, student_id, student_name, ip_address)
		VALUES ($1, $2, $3, $4,
			COALESCE($5, (SELECT first_name || ' ' || last_name FROM students WHERE id = $4)),
			$6)
		RETURNING id, user_id, action_type, student_id, student_name, ip_address, created_at`,
		uuid.New(), uid, string(rec.ActionType), rec.StudentID, rec.StudentName, rec.IPAddress,
	).Scan(&id, &by, &e.ActionType, &e.StudentID, &e.StudentName, &e.IPAddress, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add entry: %w", err)
	}

	e.ID = id.String()
	e.UserID = by.String()
	return &e, nil
}

// ListEntries returns entries matching f, newest first, joined with their user and student.
func (s *ActivityStore) ListEntries(ctx context.Context, f activity.Filter) ([]activity.View, error) {
	var (
		conds []string
		args  []any
	)

	if f.UserID != "" {
		uid, err := uuid.Parse(f.UserID)
		if err != nil {
			return []activity.View{}, nil
		}
		args = append(args, uid)
		conds = append(conds, fmt.Sprintf("a.user_id = $%d", len(args)))
	}
	if f.ActionType != "" {
		args = append(args, string(f.ActionType))
		conds = append(conds, fmt.Sprintf("a.action_type = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.user_id, a.action_type, a.student_id, a.student_name, a.ip_address, a.created_at,
		       u.email, u.first_name, u.last_name, u.role,
		       st.id IS NOT NULL
		FROM activity_logs a
		JOIN users u ON u.id = a.user_id
		LEFT JOIN students st ON st.id = a.student_id
		`+where+`
		ORDER BY a.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	views := make([]activity.View, 0)
	for rows.Next() {
		var (
			v     activity.View
			actor activity.Actor
			id    uuid.UUID
			by    uuid.UUID
		)

		if err := rows.Scan(
			&id, &by, &v.ActionType, &v.StudentID, &v.StudentName, &v.IPAddress, &v.CreatedAt,
			&actor.Email, &actor.FirstName, &actor.LastName, &actor.Role,
			&v.StudentExists,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		v.ID = id.String()
		v.UserID = by.String()
		v.User = &actor
		v.Finalize()
		views = append(views, v)
	}
	return views, rows.Err()
}

// DeleteEntry removes one entry.
func (s *ActivityStore) DeleteEntry(ctx context.Context, id string) error {
	eid, err := uuid.Parse(id)
	if err != nil {
		return activity.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM activity_logs WHERE id = $1`, eid)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return activity.ErrNotFound
	}
	return nil
}

// DeleteAllEntries empties the log and returns how many entries were removed.
func (s *ActivityStore) DeleteAllEntries(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM activity_logs`)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
