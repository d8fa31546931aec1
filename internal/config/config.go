// Package config provides functionality for managing configuration options
// for the service and checker binaries using command-line flags, a .env
// file, environment variables and an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for both binaries. The service
// ignores the checker fields and vice versa.
type Options struct {
	// Address defines the listening address (ip:port).
	Address string

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string

	// SessionLifetimeSeconds is how long an issued session stays valid.
	SessionLifetimeSeconds int

	// SessionSweepSeconds is the interval of the expired-session sweep.
	SessionSweepSeconds int

	// SessionCookieName is the name of the session cookie.
	SessionCookieName string

	// ServicePort is the port the service under test listens on; the
	// checker dials it on the address each task names.
	ServicePort int

	// RequestTimeoutSeconds bounds every checker HTTP call.
	RequestTimeoutSeconds int

	// Config is the path to the JSON config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Address, "a", "localhost:9000", "run on ip:port")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.IntVar(&options.SessionLifetimeSeconds, "session-lifetime", 600, "session lifetime in seconds")
	flag.IntVar(&options.SessionSweepSeconds, "session-sweep", 60, "expired session sweep interval in seconds")
	flag.StringVar(&options.SessionCookieName, "cookie-name", "session_id", "session cookie name")
	flag.IntVar(&options.ServicePort, "service-port", 9000, "port of the service under test")
	flag.IntVar(&options.RequestTimeoutSeconds, "request-timeout", 30, "checker HTTP request timeout in seconds")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags, the optional .env and JSON config
// files, and environment variables to set configuration values. It returns
// a pointer to the Options struct containing the parsed values.
func Parse() *Options {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Address = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if servicePort := os.Getenv("SERVICE_PORT"); servicePort != "" {
		if v, err := strconv.Atoi(servicePort); err == nil {
			options.ServicePort = v
		}
	}
	if lifetime := os.Getenv("SESSION_LIFETIME"); lifetime != "" {
		if v, err := strconv.Atoi(lifetime); err == nil {
			options.SessionLifetimeSeconds = v
		}
	}
	if timeout := os.Getenv("REQUEST_TIMEOUT"); timeout != "" {
		if v, err := strconv.Atoi(timeout); err == nil {
			options.RequestTimeoutSeconds = v
		}
	}

	return options
}

// SessionLifetime returns the configured session lifetime as a duration.
func (o *Options) SessionLifetime() time.Duration {
	return time.Duration(o.SessionLifetimeSeconds) * time.Second
}

// SessionSweepInterval returns the configured sweep interval as a duration.
func (o *Options) SessionSweepInterval() time.Duration {
	return time.Duration(o.SessionSweepSeconds) * time.Second
}

// RequestTimeout returns the configured checker request timeout as a duration.
func (o *Options) RequestTimeout() time.Duration {
	return time.Duration(o.RequestTimeoutSeconds) * time.Second
}
