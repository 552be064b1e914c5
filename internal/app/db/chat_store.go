package db

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"rosterhub/internal/app/chat"
	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/randx"
)

// ChatStore implements chat.Store on PostgreSQL.
type ChatStore struct {
	pool *pgxpool.Pool
}

// NewChatStore creates a ChatStore.
func NewChatStore(pool *pgxpool.Pool) *ChatStore {
	return &ChatStore{pool: pool}
}

// AddMessage persists a message in the default room.
func (s *ChatStore) AddMessage(ctx context.Context, author chat.Author, content string) (*chat.Message, error) {
	uid, err := uuid.Parse(author.UserID)
	if err != nil {
		return nil, fmt.Errorf("add message: invalid user id %q", author.UserID)
	}

	m := chat.Message{ID: randx.MessageID(), User: author, Message: content, Room: chat.DefaultRoom}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (id, user_id, first_name, last_name, role, email, message, room)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		m.ID, uid, author.FirstName, author.LastName, string(author.Role), author.Email, content, m.Room,
	).Scan(&m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	return &m, nil
}

// ListMessages returns the page-th newest page, oldest first, and the total message count.
func (s *ChatStore) ListMessages(ctx context.Context, page, limit int) ([]chat.Message, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chat_messages`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, first_name, last_name, role, email, message, room, created_at
		FROM chat_messages
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]chat.Message, 0, limit)
	for rows.Next() {
		var (
			m    chat.Message
			id   uuid.UUID
			by   uuid.UUID
			role string
		)

		if err := rows.Scan(&id, &by, &m.User.FirstName, &m.User.LastName, &role, &m.User.Email, &m.Message, &m.Room, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan message: %w", err)
		}

		m.ID = id.String()
		m.User.UserID = by.String()
		m.User.Role = user.Role(role)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	slices.Reverse(messages)
	return messages, total, nil
}
