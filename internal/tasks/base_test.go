package tasks

import (
	"testing"
	"time"

	"carte_challenge_echo/internal/models"
)

func TestBuildScheduledTask(t *testing.T) {
	args := NotifyRewardArgs{
		MemberID:   "m1",
		MemberName: "Alice",
		ClubID:     "club-1",
		Visits:     10,
		Credits:    1,
	}

	due := time.Now()
	task, err := BuildScheduledTask("notify_reward", args, due, nil, models.ScheduledTaskTypeOneTime, 3)
	if err != nil {
		t.Fatalf("BuildScheduledTask: %v", err)
	}

	if task.TaskName != "notify_reward" {
		t.Errorf("TaskName = %s", task.TaskName)
	}
	if task.Status != models.ScheduledTaskStatusActive {
		t.Errorf("Status = %s, want active", task.Status)
	}
	if task.MaxAttempt != 3 {
		t.Errorf("MaxAttempt = %d", task.MaxAttempt)
	}
	if got := task.Arguments["memberName"]; got != "Alice" {
		t.Errorf("Arguments[memberName] = %v", got)
	}
	// JSON round-trip stores numbers as float64
	if got := task.Arguments["visits"]; got != float64(10) {
		t.Errorf("Arguments[visits] = %v (%T)", got, got)
	}
}

func TestRegistryDispatch(t *testing.T) {
	reg := &Registry{handlers: make(map[string]TaskHandler)}

	notify := &NotifyRewardTaskDef{}
	reg.Register(notify.TaskID(), notify.HandleExecution)

	if _, ok := reg.Get("notify_reward"); !ok {
		t.Error("registered handler not found")
	}
	if _, ok := reg.Get("unknown_task"); ok {
		t.Error("unknown task reported as registered")
	}
}

func TestRecurringNextDue(t *testing.T) {
	interval := "FREQ=MINUTELY;INTERVAL=15"
	task := models.ScheduledTask{
		TaskType:          models.ScheduledTaskTypeRecurring,
		Due:               time.Now().Add(-time.Hour),
		RecurringInterval: &interval,
	}

	next := task.NextDue()
	if !next.After(task.Due) {
		t.Errorf("NextDue = %v, want after %v", next, task.Due)
	}

	oneTime := models.ScheduledTask{TaskType: models.ScheduledTaskTypeOneTime, Due: task.Due}
	if got := oneTime.NextDue(); !got.Equal(task.Due) {
		t.Errorf("one-time NextDue = %v, want unchanged", got)
	}
}
