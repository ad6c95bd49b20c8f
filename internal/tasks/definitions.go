package tasks

import (
	"carte_challenge_echo/internal/services"
	"carte_challenge_echo/internal/store"
)

// Deps carries the services the task handlers need
type Deps struct {
	Store   *store.SyncStore
	Email   *services.EmailService
	Webhook *services.WebhookService
}

// DefineTasks registers all available tasks
func DefineTasks(deps Deps) {
	// General tasks
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	refresh := &RefreshSnapshotsTaskDef{Store: deps.Store}
	RegisterHandler(refresh.TaskID(), refresh.HandleExecution)

	archive := &ArchiveVisitsTaskDef{Store: deps.Store}
	RegisterHandler(archive.TaskID(), archive.HandleExecution)

	// Notification tasks
	notify := &NotifyRewardTaskDef{Email: deps.Email, Webhook: deps.Webhook}
	RegisterHandler(notify.TaskID(), notify.HandleExecution)
}
