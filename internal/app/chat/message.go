/*
Package chat holds the persisted messages of the shared chat channel.
*/
package chat

import (
	"context"
	"strings"
	"time"

	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/errs"
)

const (
	// MaxContentBytes is the maximum allowed size (in bytes) for message content.
	MaxContentBytes = 5000

	// DefaultPageSize is the number of messages returned when no limit is given.
	DefaultPageSize = 50

	// DefaultRoom is the only room; the column exists for later room support.
	DefaultRoom = "general"
)

// Author is the snapshot of the sender stored with each message.
type Author struct {
	UserID    string    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      user.Role `json:"role"`
	Email     string    `json:"email"`
}

// AuthorFrom snapshots an identity.
func AuthorFrom(identity user.Identity) Author {
	return Author{
		UserID:    identity.ID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Role:      identity.Role,
		Email:     identity.Email,
	}
}

// Message is one persisted chat message.
type Message struct {
	ID        string    `json:"id"`
	User      Author    `json:"user"`
	Message   string    `json:"message"`
	Room      string    `json:"room"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeContent trims content and enforces the size limit.
func NormalizeContent(content string) (string, *errs.CustomError) {
	content = strings.TrimSpace(content)

	if content == "" {
		return "", errs.NewError(errs.ErrMessageEmpty)
	}

	if len(content) > MaxContentBytes {
		return "", errs.NewError(errs.ErrMessageContentTooLong)
	}

	return content, nil
}

// Store persists chat messages.
type Store interface {
	AddMessage(ctx context.Context, author Author, content string) (*Message, error)

	// ListMessages returns the page-th newest page of size limit, oldest first within the page.
	ListMessages(ctx context.Context, page, limit int) ([]Message, int64, error)
}
