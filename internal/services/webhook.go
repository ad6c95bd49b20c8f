package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookService delivers loyalty events to an external HTTP endpoint,
// typically the club's push-notification relay.
type WebhookService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewWebhookService builds a webhook client. An empty baseURL yields a
// disabled service whose Configured method returns false.
func NewWebhookService(baseURL, apiKey string) *WebhookService {
	return &WebhookService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether an endpoint has been set
func (s *WebhookService) Configured() bool {
	return s.baseURL != ""
}

func (s *WebhookService) makeRequest(method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", s.baseURL, endpoint), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// RewardEvent is the payload posted when a member unlocks a reward credit
type RewardEvent struct {
	Event      string `json:"event"`
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName"`
	ClubID     string `json:"clubId"`
	Visits     int    `json:"visits"`
	Credits    int    `json:"credits"`
	OccurredAt string `json:"occurredAt"`
}

// SendRewardEvent posts a reward_granted event to the configured endpoint
func (s *WebhookService) SendRewardEvent(ev RewardEvent) error {
	if !s.Configured() {
		return fmt.Errorf("webhook endpoint not configured")
	}
	if ev.Event == "" {
		ev.Event = "reward_granted"
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	return s.makeRequest("POST", "/events", ev)
}

// Ping checks endpoint reachability, used by the probe command
func (s *WebhookService) Ping() error {
	if !s.Configured() {
		return fmt.Errorf("webhook endpoint not configured")
	}
	return s.makeRequest("GET", "/health", nil)
}
