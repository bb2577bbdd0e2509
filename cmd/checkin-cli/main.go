package main

import (
	"fmt"
	"os"

	"choiros-backend/cmd/checkin-cli/commands"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "login":
		commands.LoginCommand(os.Args[2:])
	case "code":
		commands.CodeCommand(os.Args[2:])
	case "pending":
		commands.PendingCommand(os.Args[2:])
	case "config":
		commands.ConfigCommand(os.Args[2:])
	case "version":
		fmt.Printf("choiros-checkin version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`choiros-checkin - ChoirOS attendance check-in CLI

USAGE:
    choiros-checkin <command> [options]

COMMANDS:
    login       Sign in to the ChoirOS server and store the token
    code        Fetch the check-in QR code of an event
    pending     Inspect or flush the queue of a check-in station
    config      Manage CLI configuration (set, get, list)
    version     Print version information
    help        Show this help message

EXAMPLES:
    choiros-checkin config set server https://alto.choiros.app
    choiros-checkin config set org alto
    choiros-checkin login direttore@coroalto.it
    choiros-checkin code 42 --png --out prova.png
    choiros-checkin pending list
    choiros-checkin pending sync --station http://127.0.0.1:8090
`)
}
