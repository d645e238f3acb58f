package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"discord-summarizer/utils"
)

// CleanupOldMessages deletes messages older than retention. Summaries and
// sync rows are left alone; they are invalidated by time on their own.
func (m *MessageDB) CleanupOldMessages(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}

	log.Println("Starting cleanup of old messages...")

	cutoff := toNanos(m.now().Add(-retention))
	res, err := m.db.ExecContext(ctx, "DELETE FROM messages WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, wrapErr("cleanup old messages", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("cleanup rows affected", err)
	}

	utils.Info("CleanupOldMessages", "Cleanup",
		fmt.Sprintf("Successfully cleaned up %d messages older than %s", rowsAffected, retention))

	return rowsAffected, nil
}
