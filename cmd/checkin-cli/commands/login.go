package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"choiros-backend/internal/client"
)

func LoginCommand(args []string) {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		fmt.Println(`choiros-checkin login - Sign in and store the token

USAGE:
    choiros-checkin login <email>

The password is read from standard input.`)
		if len(args) == 0 {
			os.Exit(1)
		}
		return
	}

	cfg := LoadConfig()
	email := args[0]

	fmt.Print("Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, _ := reader.ReadString('\n')
	password = strings.TrimRight(password, "\r\n")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	api := client.NewAttendanceClient(cfg.ServerURL, cfg.Org, "", 15*time.Second)
	resp, err := api.Login(ctx, email, password)
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		os.Exit(1)
	}

	cfg.Token = resp.Token
	if err := SaveConfig(cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Logged in as %s (token valid until %s)\n", email, resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
}
