package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"choiros-backend/internal/client"
)

func CodeCommand(args []string) {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printCodeUsage()
		if len(args) == 0 {
			os.Exit(1)
		}
		return
	}

	eventID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || eventID <= 0 {
		fmt.Printf("Error: invalid event id %q\n", args[0])
		os.Exit(1)
	}

	png := false
	out := ""
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--png":
			png = true
		case "--out", "-o":
			if i+1 < len(args) {
				out = args[i+1]
				i++
			}
		}
	}
	if png && out == "" {
		out = fmt.Sprintf("checkin-%d.png", eventID)
	}

	cfg := LoadConfig()
	if cfg.Org == "" || cfg.Token == "" {
		fmt.Println("Error: organization or token not configured")
		fmt.Println("Run: choiros-checkin config set org <slug> && choiros-checkin login <email>")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	api := client.NewAttendanceClient(cfg.ServerURL, cfg.Org, cfg.Token, 15*time.Second)
	data, err := api.CheckInCode(ctx, eventID, png)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if out == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		fmt.Printf("Error writing %s: %v\n", out, err)
		os.Exit(1)
	}
	fmt.Printf("Saved check-in code for event %d to %s\n", eventID, out)
}

func printCodeUsage() {
	fmt.Println(`choiros-checkin code - Fetch the check-in QR code of an event

USAGE:
    choiros-checkin code <event-id> [--png] [--out file]

OPTIONS:
    --png          Fetch the rendered PNG instead of the JSON payload
    --out, -o      Write to file (default for --png: checkin-<id>.png)`)
}
