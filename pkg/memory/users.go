package memory

import (
	"context"
	"database/sql"
	"fmt"
)

// TouchUser upserts a user row on an observed message: first sighting creates
// the row with message_count=1, later sightings refresh username, display
// name and last_seen and increment message_count by one. Returns the
// post-increment message count. The increment is atomic inside the upsert
// statement, so concurrent callers for the same ID never lose updates.
func (s *Store) TouchUser(ctx context.Context, userID, username, displayName string) (int64, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, display_name, first_seen, last_seen, message_count)
		VALUES (?, ?, ?, datetime('now'), datetime('now'), 1)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			last_seen = datetime('now'),
			message_count = users.message_count + 1
	`, userID, username, displayName)
	if err != nil {
		return 0, fmt.Errorf("touch user: %w", err)
	}

	var count int64
	err = s.db.QueryRowContext(ctx,
		"SELECT message_count FROM users WHERE user_id = ?", userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("read message count: %w", err)
	}
	return count, nil
}

// GetUser retrieves a user row. Returns nil if the user has never been seen.
func (s *Store) GetUser(ctx context.Context, userID string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, COALESCE(username, ''), COALESCE(display_name, ''),
		       COALESCE(first_seen, ''), COALESCE(last_seen, ''),
		       message_count, voice_minutes, relationship_score,
		       COALESCE(personality_notes, ''), created_at
		FROM users WHERE user_id = ?
	`, userID)

	var u User
	var firstSeen, lastSeen, createdAt string
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &firstSeen, &lastSeen,
		&u.MessageCount, &u.VoiceMinutes, &u.RelationshipScore,
		&u.PersonalityNotes, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	u.FirstSeen = parseTime(firstSeen)
	u.LastSeen = parseTime(lastSeen)
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}
