package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"carte_challenge_echo/internal/services"
)

func main() {
	member := flag.String("member", "Test Member", "Member name for the probe event")
	clubID := flag.String("club", "probe-club", "Club identifier")
	ping := flag.Bool("ping", false, "Only check endpoint reachability")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found")
	}

	service := services.NewWebhookService(os.Getenv("WEBHOOK_URL"), os.Getenv("WEBHOOK_API_KEY"))
	if !service.Configured() {
		log.Fatal("WEBHOOK_URL is not set")
	}

	if *ping {
		if err := service.Ping(); err != nil {
			log.Fatalf("Endpoint unreachable: %v", err)
		}
		log.Println("Endpoint reachable.")
		return
	}

	ev := services.RewardEvent{
		MemberID:   "probe",
		MemberName: *member,
		ClubID:     *clubID,
		Visits:     10,
		Credits:    1,
	}

	log.Printf("Posting probe reward event for %s", *member)
	if err := service.SendRewardEvent(ev); err != nil {
		log.Fatalf("Failed to post event: %v", err)
	}

	log.Println("Event posted successfully!")
}
