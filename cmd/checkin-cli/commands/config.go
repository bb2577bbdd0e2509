package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL  string `json:"server_url"`
	Org        string `json:"org"`
	Token      string `json:"token"`
	StationURL string `json:"station_url"`
}

func ConfigCommand(args []string) {
	if len(args) == 0 {
		printConfigUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "set":
		configSet(args[1:])
	case "get":
		configGet(args[1:])
	case "list":
		configList()
	case "help", "-h", "--help":
		printConfigUsage()
	default:
		fmt.Printf("Unknown config command: %s\n\n", args[0])
		printConfigUsage()
		os.Exit(1)
	}
}

func printConfigUsage() {
	fmt.Print(`choiros-checkin config - Manage CLI configuration

USAGE:
    choiros-checkin config <subcommand> [options]

SUBCOMMANDS:
    set <key> <value>     Set a configuration value
    get <key>             Get a configuration value
    list                  List all configuration

CONFIGURATION KEYS:
    server     ChoirOS server URL
    org        Organization slug
    station    Local API of a check-in station (default: http://127.0.0.1:8090)
`)
}

func getConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".choiros", "cli.json")
}

// LoadConfig loads configuration from file
func LoadConfig() *Config {
	cfg := &Config{
		ServerURL:  "http://localhost:8080",
		StationURL: "http://127.0.0.1:8090",
	}

	data, err := os.ReadFile(getConfigPath())
	if err != nil {
		return cfg
	}

	json.Unmarshal(data, cfg)
	return cfg
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config) error {
	configPath := getConfigPath()
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0600)
}

func configSet(args []string) {
	if len(args) < 2 {
		fmt.Println("Error: Key and value required")
		fmt.Println("Usage: choiros-checkin config set <key> <value>")
		os.Exit(1)
	}

	key := args[0]
	value := strings.TrimRight(strings.Join(args[1:], " "), "/")

	cfg := LoadConfig()
	switch key {
	case "server":
		cfg.ServerURL = value
	case "org":
		cfg.Org = value
	case "station":
		cfg.StationURL = value
	default:
		fmt.Printf("Unknown configuration key: %s\n", key)
		fmt.Println("Valid keys: server, org, station")
		os.Exit(1)
	}

	if err := SaveConfig(cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s = %s\n", key, value)
}

func configGet(args []string) {
	if len(args) == 0 {
		fmt.Println("Error: Key required")
		os.Exit(1)
	}

	cfg := LoadConfig()
	switch args[0] {
	case "server":
		fmt.Println(cfg.ServerURL)
	case "org":
		fmt.Println(cfg.Org)
	case "station":
		fmt.Println(cfg.StationURL)
	default:
		fmt.Printf("Unknown configuration key: %s\n", args[0])
		os.Exit(1)
	}
}

func configList() {
	cfg := LoadConfig()
	token := "(not logged in)"
	if cfg.Token != "" {
		token = "(set)"
	}
	fmt.Printf("server:   %s\n", cfg.ServerURL)
	fmt.Printf("org:      %s\n", cfg.Org)
	fmt.Printf("station:  %s\n", cfg.StationURL)
	fmt.Printf("token:    %s\n", token)
}
