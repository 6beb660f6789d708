package memory

import (
	"context"
	"fmt"
)

// Conversation roles. Free text in the schema, but the bot only writes these.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AddConversationTurn appends one utterance to a user's conversation log.
// channelID and messageID are optional; pass "" to store NULL. Turns are
// never updated or deleted.
func (s *Store) AddConversationTurn(ctx context.Context, userID, channelID, messageID, role, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (user_id, channel_id, message_id, role, content)
		VALUES (?, ?, ?, ?, ?)
	`, userID, nullable(channelID), nullable(messageID), role, content)
	if err != nil {
		return fmt.Errorf("add conversation turn: %w", err)
	}
	return nil
}

// RecentConversation returns the most recent limit turns for a user in
// chronological order: the physical fetch is newest-first, then reversed so
// the oldest turn of the window comes out first.
func (s *Store) RecentConversation(ctx context.Context, userID string, limit int) ([]ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, COALESCE(channel_id, ''), COALESCE(message_id, ''),
		       role, content, timestamp
		FROM conversations
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent conversation: %w", err)
	}
	defer rows.Close()

	var turns []ConversationTurn
	for rows.Next() {
		var t ConversationTurn
		var ts string
		if err := rows.Scan(&t.ID, &t.UserID, &t.ChannelID, &t.MessageID, &t.Role, &t.Content, &ts); err != nil {
			return nil, fmt.Errorf("scan conversation turn: %w", err)
		}
		t.Timestamp = parseTime(ts)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent conversation: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
