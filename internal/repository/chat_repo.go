package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepository interface {
	CreateConversation(ctx context.Context, userID string, childID *string, title string) (*model.Conversation, error)
	GetConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]model.Conversation, error)
	UpdateConversationTitle(ctx context.Context, conversationID, userID, title string) (*model.Conversation, error)
	DeleteConversation(ctx context.Context, conversationID, userID string) error
	CreateMessage(ctx context.Context, conversationID, role, content string) (*model.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
}

type chatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) ChatRepository {
	return &chatRepo{pool: pool}
}

func (r *chatRepo) CreateConversation(ctx context.Context, userID string, childID *string, title string) (*model.Conversation, error) {
	const q = `
        INSERT INTO conversations (user_id, child_id, title)
        VALUES ($1, $2, $3)
        RETURNING id, user_id, child_id, title, created_at, updated_at
    `
	var c model.Conversation
	err := r.pool.QueryRow(ctx, q, userID, childID, title).Scan(
		&c.ID,
		&c.UserID,
		&c.ChildID,
		&c.Title,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return &c, nil
}

func (r *chatRepo) GetConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error) {
	const q = `
        SELECT id, user_id, child_id, title, created_at, updated_at
        FROM conversations
        WHERE id = $1 AND user_id = $2
    `
	var c model.Conversation
	err := r.pool.QueryRow(ctx, q, conversationID, userID).Scan(
		&c.ID,
		&c.UserID,
		&c.ChildID,
		&c.Title,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	return &c, nil
}

func (r *chatRepo) ListConversations(ctx context.Context, userID string, limit, offset int) ([]model.Conversation, error) {
	const q = `
        SELECT id, user_id, child_id, title, created_at, updated_at
        FROM conversations
        WHERE user_id = $1
        ORDER BY updated_at DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.ChildID,
			&c.Title,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}
	return conversations, nil
}

func (r *chatRepo) UpdateConversationTitle(ctx context.Context, conversationID, userID, title string) (*model.Conversation, error) {
	const q = `
        UPDATE conversations
        SET title = $3, updated_at = NOW()
        WHERE id = $1 AND user_id = $2
        RETURNING id, user_id, child_id, title, created_at, updated_at
    `
	var c model.Conversation
	err := r.pool.QueryRow(ctx, q, conversationID, userID, title).Scan(
		&c.ID,
		&c.UserID,
		&c.ChildID,
		&c.Title,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating conversation: %w", err)
	}
	return &c, nil
}

func (r *chatRepo) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	const q = `DELETE FROM conversations WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, q, conversationID, userID)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting conversation: conversation %s not found", conversationID)
	}
	return nil
}

func (r *chatRepo) CreateMessage(ctx context.Context, conversationID, role, content string) (*model.Message, error) {
	const q = `
        INSERT INTO messages (conversation_id, role, content)
        VALUES ($1, $2, $3)
        RETURNING id, conversation_id, role, content, created_at
    `
	var m model.Message
	err := r.pool.QueryRow(ctx, q, conversationID, role, content).Scan(
		&m.ID,
		&m.ConversationID,
		&m.Role,
		&m.Content,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}
	return &m, nil
}

func (r *chatRepo) ListMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	const q = `
        SELECT id, conversation_id, role, content, created_at
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at ASC
        LIMIT $2
    `
	rows, err := r.pool.Query(ctx, q, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.Role,
			&m.Content,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}
	return messages, nil
}
