package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rosterhub/internal/app/student"
)

const studentColumns = `id, first_name, last_name, email, subjects, photo_url, photo_key, created_at, updated_at`

// StudentStore implements student.Store on PostgreSQL.
type StudentStore struct {
	pool *pgxpool.Pool
}

// NewStudentStore creates a StudentStore.
func NewStudentStore(pool *pgxpool.Pool) *StudentStore {
	return &StudentStore{pool: pool}
}

func scanStudent(row pgx.Row) (*student.Student, error) {
	var s student.Student
	if err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Subjects, &s.PhotoURL, &s.PhotoKey, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if IsNoRows(err) {
			return nil, student.ErrNotFound
		}
		return nil, err
	}
	if s.Subjects == nil {
		s.Subjects = []string{}
	}
	return &s, nil
}

// searchClause builds the WHERE clause of a roster search.
func searchClause(search student.Search) (string, []any) {
	const nameOrEmail = `(first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR email ILIKE $%[1]d)`
	const anySubject = `EXISTS (SELECT 1 FROM unnest(subjects) AS subject WHERE subject ILIKE $%[1]d)`

	switch {
	case search.Term == "":
		return "", nil
	case search.Subject == "":
		clause := fmt.Sprintf(`WHERE (`+nameOrEmail+` OR `+anySubject+`)`, 1)
		return clause, []any{containsPattern(search.Term)}
	default:
		clause := `WHERE ` + fmt.Sprintf(nameOrEmail, 1) + ` AND ` + fmt.Sprintf(anySubject, 2)
		return clause, []any{containsPattern(search.Term), containsPattern(search.Subject)}
	}
}

// ListStudents returns one page ordered by id and the total number of matches.
func (s *StudentStore) ListStudents(ctx context.Context, q student.ListQuery) ([]student.Student, int64, error) {
	where, args := searchClause(q.Search)

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM students `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM students %s ORDER BY id LIMIT $%d OFFSET $%d`, studentColumns, where, n+1, n+2)
	rows, err := s.pool.Query(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := make([]student.Student, 0, q.Limit)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, *st)
	}
	return students, total, rows.Err()
}

// GetStudent returns the student with id.
func (s *StudentStore) GetStudent(ctx context.Context, id int64) (*student.Student, error) {
	return scanStudent(s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
}

// EmailExists reports whether another student than excludeID uses email. Pass 0 to exclude nobody.
func (s *StudentStore) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM students WHERE email = $1 AND id <> $2)`,
		strings.ToLower(email), excludeID,
	).Scan(&exists)
	return exists, err
}

// CreateStudent inserts a student with the next sequential id.
func (s *StudentStore) CreateStudent(ctx context.Context, in student.Input) (*student.Student, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO students (first_name, last_name, email, subjects)
		VALUES ($1, $2, $3, $4)
		RETURNING `+studentColumns,
		in.FirstName, in.LastName, in.Email, in.Subjects,
	)

	st, err := scanStudent(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, student.ErrEmailTaken
		}
		return nil, fmt.Errorf("create student: %w", err)
	}
	return st, nil
}

// UpdateStudent applies p to the student with id.
func (s *StudentStore) UpdateStudent(ctx context.Context, id int64, p student.Patch) (*student.Student, error) {
	var subjects []string
	if p.Subjects != nil {
		subjects = *p.Subjects
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE students SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			email      = COALESCE($4, email),
			subjects   = CASE WHEN $5::boolean THEN $6::text[] ELSE subjects END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+studentColumns,
		id, p.FirstName, p.LastName, p.Email, p.Subjects != nil, subjects,
	)

	st, err := scanStudent(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, student.ErrEmailTaken
		}
		return nil, err
	}
	return st, nil
}

// SetStudentPhoto stores the new photo and returns the key it replaced.
func (s *StudentStore) SetStudentPhoto(ctx context.Context, id int64, key, url string) (string, *student.Student, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var previous string
	if err := tx.QueryRow(ctx, `SELECT photo_key FROM students WHERE id = $1 FOR UPDATE`, id).Scan(&previous); err != nil {
		if IsNoRows(err) {
			return "", nil, student.ErrNotFound
		}
		return "", nil, err
	}

	st, err := scanStudent(tx.QueryRow(ctx, `
		UPDATE students SET photo_key = $2, photo_url = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+studentColumns,
		id, key, url,
	))
	if err != nil {
		return "", nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", nil, fmt.Errorf("commit: %w", err)
	}
	return previous, st, nil
}

// DeleteStudent removes the student with id and returns the deleted row.
func (s *StudentStore) DeleteStudent(ctx context.Context, id int64) (*student.Student, error) {
	return scanStudent(s.pool.QueryRow(ctx, `DELETE FROM students WHERE id = $1 RETURNING `+studentColumns, id))
}
