package config

import "fmt"

// DatabaseConfig is the primary PostgreSQL connection plus optional
// fallback hosts tried in order when the primary is unreachable.
type DatabaseConfig struct {
	Host      string         `mapstructure:"host"`
	Port      int            `mapstructure:"port"`
	User      string         `mapstructure:"user"`
	Password  string         `mapstructure:"password"`
	Name      string         `mapstructure:"name"`
	SSLMode   string         `mapstructure:"sslmode"`
	MaxConns  int32          `mapstructure:"max_conns"`
	Fallbacks []DatabaseHost `mapstructure:"fallbacks"`
}

// DatabaseHost is one candidate host. Empty fields inherit from the primary.
type DatabaseHost struct {
	Name     string `mapstructure:"name"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	UsePeer  bool   `mapstructure:"use_peer"` // Unix socket with peer auth (no password)
}

// Candidates returns the primary followed by every fallback, with
// missing fields filled from the primary.
func (d DatabaseConfig) Candidates() []DatabaseHost {
	hosts := []DatabaseHost{{
		Name:     "Primary (" + d.Host + ")",
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
	}}
	for _, fb := range d.Fallbacks {
		if fb.Port == 0 {
			fb.Port = d.Port
		}
		if fb.User == "" {
			fb.User = d.User
		}
		if fb.Password == "" && !fb.UsePeer {
			fb.Password = d.Password
		}
		if fb.Name == "" {
			fb.Name = fb.Host
		}
		hosts = append(hosts, fb)
	}
	return hosts
}

// ConnectionString returns a libpq keyword/value string for host h.
func (d DatabaseConfig) ConnectionString(h DatabaseHost) string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	if h.UsePeer {
		return fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable",
			h.Host, h.User, d.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		h.Host, h.Port, h.User, h.Password, d.Name, sslMode)
}
