package tasks

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/store"
)

// LogInfoTaskDef encapsulates the log info task
type LogInfoTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *LogInfoTaskDef) TaskID() string {
	return "log_info"
}

// HandleExecution handles logging information
func (t *LogInfoTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	message, ok := task.Arguments["message"].(string)
	if !ok {
		message = "No message provided"
	}
	log.Printf("[Task: log_info] Message: %s", message)

	return map[string]interface{}{
		"status":  "success",
		"message": message,
	}, nil
}

// LogInfoTask is the singleton instance of LogInfoTaskDef
var LogInfoTask = &LogInfoTaskDef{}

// RefreshSnapshotsTaskDef re-pulls the remote collections for a club into
// the local cache so stale offline writes get overwritten by remote state.
type RefreshSnapshotsTaskDef struct {
	Store *store.SyncStore
}

func (t *RefreshSnapshotsTaskDef) TaskID() string {
	return "refresh_snapshots"
}

func (t *RefreshSnapshotsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	clubID, ok := task.Arguments["clubId"].(string)
	if !ok || clubID == "" {
		return nil, fmt.Errorf("clubId argument is required")
	}

	if err := t.Store.RefreshSnapshots(ctx, clubID); err != nil {
		return nil, fmt.Errorf("snapshot refresh failed: %w", err)
	}

	return map[string]interface{}{
		"status": "success",
		"clubId": clubID,
	}, nil
}

// ArchiveVisitsTaskDef copies the club's recent visits into the reporting
// database. Rows are upserted on visit ID so reruns are idempotent.
type ArchiveVisitsTaskDef struct {
	Store *store.SyncStore
}

func (t *ArchiveVisitsTaskDef) TaskID() string {
	return "archive_visits"
}

func (t *ArchiveVisitsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	clubID, ok := task.Arguments["clubId"].(string)
	if !ok || clubID == "" {
		return nil, fmt.Errorf("clubId argument is required")
	}

	limit := 100
	if v, ok := task.Arguments["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	visits, err := t.Store.ClubVisits(ctx, clubID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load visits: %w", err)
	}

	archived := 0
	for _, v := range visits {
		row := models.VisitArchive{
			VisitID:    v.ID,
			MemberID:   v.MemberID,
			MemberName: v.MemberName,
			ClubID:     v.ClubID,
			VisitedAt:  v.Date,
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "visit_id"}},
			DoNothing: true,
		}).Create(&row).Error
		if err != nil {
			return nil, fmt.Errorf("failed to archive visit %s: %w", v.ID, err)
		}
		archived++
	}

	return map[string]interface{}{
		"status":   "success",
		"clubId":   clubID,
		"fetched":  len(visits),
		"archived": archived,
	}, nil
}
