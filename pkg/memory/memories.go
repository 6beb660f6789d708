package memory

import (
	"context"
	"fmt"
)

// AddMemory stores a derived fact about a user. Duplicate facts (same user,
// type and content) are silently ignored: the first insert wins and the
// caller cannot tell "inserted" from "already present".
func (s *Store) AddMemory(ctx context.Context, userID, memoryType, content string, confidence float64, sourceMessageID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO memories (user_id, memory_type, content, confidence, source_message_id)
		VALUES (?, ?, ?, ?, ?)
	`, userID, memoryType, content, confidence, nullable(sourceMessageID))
	if err != nil {
		return fmt.Errorf("add memory: %w", err)
	}
	return nil
}

// ListMemories returns up to limit memories for a user, most recent first.
func (s *Store) ListMemories(ctx context.Context, userID string, limit int) ([]Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, memory_type, content, confidence,
		       COALESCE(source_message_id, ''), created_at,
		       COALESCE(last_accessed, ''), access_count
		FROM memories
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var memories []Memory
	for rows.Next() {
		var m Memory
		var createdAt, lastAccessed string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Type, &m.Content, &m.Confidence,
			&m.SourceMessageID, &createdAt, &lastAccessed, &m.AccessCount); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		m.CreatedAt = parseTime(createdAt)
		if lastAccessed != "" {
			m.LastAccessed = parseTime(lastAccessed)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	return memories, nil
}

// CountMemories returns the total number of stored memories for a user.
func (s *Store) CountMemories(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memories WHERE user_id = ?", userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return count, nil
}
