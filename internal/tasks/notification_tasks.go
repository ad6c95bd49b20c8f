package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/services"
)

// NotifyRewardArgs defines the arguments for a reward notification task
type NotifyRewardArgs struct {
	MemberID     string `json:"memberId"`
	MemberName   string `json:"memberName"`
	Email        string `json:"email"`
	ClubID       string `json:"clubId"`
	Visits       int    `json:"visits"`
	Credits      int    `json:"credits"`
	AttemptCount int    `json:"attempt_count"`
}

// NotifyRewardTaskDef delivers reward notifications over the configured
// channels. Email and webhook are independent: a member without an email
// address still produces a webhook event, and vice versa.
type NotifyRewardTaskDef struct {
	Email   *services.EmailService
	Webhook *services.WebhookService
}

// TaskID returns the unique identifier for this task
func (t *NotifyRewardTaskDef) TaskID() string {
	return "notify_reward"
}

// CreateTask builds a ScheduledTask record for this task
func (t *NotifyRewardTaskDef) CreateTask(args NotifyRewardArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution sends the notification, rescheduling on partial failure
func (t *NotifyRewardTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	argsBytes, err := json.Marshal(task.Arguments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var parsedArgs NotifyRewardArgs
	if err := json.Unmarshal(argsBytes, &parsedArgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}

	sent := 0
	skipped := 0
	var failures []string

	if t.Email != nil && t.Email.Configured() && parsedArgs.Email != "" {
		if err := t.Email.SendRewardEmail(parsedArgs.Email, parsedArgs.MemberName, parsedArgs.Credits); err != nil {
			log.Printf("Failed to email %s: %v", parsedArgs.MemberName, err)
			failures = append(failures, fmt.Sprintf("email: %v", err))
		} else {
			sent++
		}
	} else {
		skipped++
	}

	if t.Webhook != nil && t.Webhook.Configured() {
		ev := services.RewardEvent{
			MemberID:   parsedArgs.MemberID,
			MemberName: parsedArgs.MemberName,
			ClubID:     parsedArgs.ClubID,
			Visits:     parsedArgs.Visits,
			Credits:    parsedArgs.Credits,
		}
		if err := t.Webhook.SendRewardEvent(ev); err != nil {
			log.Printf("Failed to post reward event for %s: %v", parsedArgs.MemberName, err)
			failures = append(failures, fmt.Sprintf("webhook: %v", err))
		} else {
			sent++
		}
	} else {
		skipped++
	}

	result := map[string]interface{}{
		"sent":    sent,
		"skipped": skipped,
		"failure": len(failures),
	}

	if len(failures) > 0 {
		result["errors"] = failures

		attempt := parsedArgs.AttemptCount
		maxRetries := task.MaxAttempt

		if attempt < maxRetries {
			log.Printf("Delivery failed for %s. Rescheduling for attempt %d", parsedArgs.MemberName, attempt+1)

			newArgs := parsedArgs
			newArgs.AttemptCount = attempt + 1

			// Re-schedule in 5 minutes
			nextRun := time.Now().Add(5 * time.Minute)

			newTask, err := BuildScheduledTask(t.TaskID(), newArgs, nextRun, nil, models.ScheduledTaskTypeOneTime, maxRetries)
			if err == nil {
				db.Create(newTask)
			} else {
				log.Printf("Failed to create retry task: %v", err)
			}
		} else {
			log.Printf("Max attempts (%d) reached for %s.", maxRetries, parsedArgs.MemberName)
			return result, fmt.Errorf("max attempts reached, %d channels failed", len(failures))
		}
	}

	return result, nil
}
