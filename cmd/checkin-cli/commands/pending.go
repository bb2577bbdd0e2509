package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"choiros-backend/internal/client"
)

func PendingCommand(args []string) {
	if len(args) == 0 {
		printPendingUsage()
		os.Exit(1)
	}

	cfg := LoadConfig()
	stationURL := cfg.StationURL
	for i := 1; i < len(args); i++ {
		if args[i] == "--station" && i+1 < len(args) {
			stationURL = args[i+1]
			i++
		}
	}
	station := client.NewStationClient(stationURL)

	switch args[0] {
	case "list":
		pendingList(station)
	case "sync":
		pendingSync(station)
	case "help", "-h", "--help":
		printPendingUsage()
	default:
		fmt.Printf("Unknown pending command: %s\n\n", args[0])
		printPendingUsage()
		os.Exit(1)
	}
}

func printPendingUsage() {
	fmt.Println(`choiros-checkin pending - Inspect or flush a station's queue

USAGE:
    choiros-checkin pending <subcommand> [--station URL]

SUBCOMMANDS:
    list      Show connectivity and queued check-ins
    sync      Run a sync pass now and print its summary`)
}

func pendingList(station *client.StationClient) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := station.Status(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	records, err := station.Pending(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	state := "offline"
	if status.Online {
		state = "online"
	}
	fmt.Printf("Station %s, scanner %s, %d pending\n", state, status.ScannerState, status.PendingCount)
	if status.LastSync != nil {
		fmt.Printf("Last sync: %s (%d synced, %d failed)\n",
			status.LastSync.StartedAt.Local().Format("2006-01-02 15:04:05"), status.LastSync.Synced, status.LastSync.Failed)
	}
	if len(records) == 0 {
		return
	}

	fmt.Println()
	fmt.Printf("%-8s %-8s %-8s %s\n", "LOCAL", "EVENT", "USER", "CHECK-IN")
	for _, rec := range records {
		fmt.Printf("%-8d %-8d %-8d %s\n", rec.LocalID, rec.EventID, rec.UserID, rec.CheckInAt.Local().Format("2006-01-02 15:04:05"))
	}
}

func pendingSync(station *client.StationClient) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := station.Sync(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Sync %s: %d attempted, %d synced, %d left for retry (%s)\n",
		result.PassID, result.Attempted, result.Synced, result.Failed, result.Duration.Round(time.Millisecond))
	if result.Failed > 0 {
		os.Exit(2)
	}
}
