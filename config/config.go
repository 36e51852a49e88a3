/*
Copyright 2024 Gamehostify Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5002"

	// Default poll schedule: min(base * 2^n, max).
	DEFAULT_POLL_BASE_DELAY_MS = 3000
	DEFAULT_POLL_MAX_DELAY_MS  = 15000
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"CHECKOUT_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"CHECKOUT_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"CHECKOUT_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"CHECKOUT_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"CHECKOUT_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"CHECKOUT_SERVER_PORT"`
}

// GatewayConfig points at the upstream commerce/payment gateway that issues
// invoices and reports payment status.
type GatewayConfig struct {
	BaseURL string `json:"base_url" envconfig:"CHECKOUT_GATEWAY_BASE_URL"`
	APIKey  string `json:"api_key" envconfig:"CHECKOUT_GATEWAY_API_KEY"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"CHECKOUT_REDIS_DNS"`
}

// CatalogConfig locates the static payment-instruction catalog. Either a URL
// fetched once at startup or a local JSON file.
type CatalogConfig struct {
	Url  string `json:"url" envconfig:"CHECKOUT_CATALOG_URL"`
	File string `json:"file" envconfig:"CHECKOUT_CATALOG_FILE"`
}

// PollerConfig overrides the status poll backoff schedule. There is
// deliberately no retry ceiling: polling runs until a terminal status,
// ticket loss, or cancellation.
type PollerConfig struct {
	BaseDelayMs int `json:"base_delay_ms" envconfig:"CHECKOUT_POLL_BASE_DELAY_MS"`
	MaxDelayMs  int `json:"max_delay_ms" envconfig:"CHECKOUT_POLL_MAX_DELAY_MS"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"CHECKOUT_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"CHECKOUT_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"CHECKOUT_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName     string          `json:"project_name" envconfig:"CHECKOUT_PROJECT_NAME"`
	EnableTelemetry bool            `json:"enable_telemetry" envconfig:"CHECKOUT_ENABLE_TELEMETRY"`
	Server          ServerConfig    `json:"server"`
	Gateway         GatewayConfig   `json:"gateway"`
	Redis           RedisConfig     `json:"redis"`
	Catalog         CatalogConfig   `json:"catalog"`
	Poller          PollerConfig    `json:"poller"`
	Notification    Notification    `json:"notification"`
	RateLimit       RateLimitConfig `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("checkout", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called checkout.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Gamehostify Checkout"
	}

	if cnf.Gateway.BaseURL == "" {
		log.Println("Error: Gateway base URL is empty. It's a required field.")
		return errors.New("gateway base URL is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.Gateway.BaseURL = strings.TrimSuffix(strings.TrimSpace(cnf.Gateway.BaseURL), "/")
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Poller.BaseDelayMs <= 0 {
		cnf.Poller.BaseDelayMs = DEFAULT_POLL_BASE_DELAY_MS
	}
	if cnf.Poller.MaxDelayMs <= 0 {
		cnf.Poller.MaxDelayMs = DEFAULT_POLL_MAX_DELAY_MS
	}
	if cnf.Poller.MaxDelayMs < cnf.Poller.BaseDelayMs {
		log.Printf("Warning: Poll max delay below base delay. Raising it to %dms", cnf.Poller.BaseDelayMs)
		cnf.Poller.MaxDelayMs = cnf.Poller.BaseDelayMs
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	// Set default cleanup interval if not specified
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
		log.Printf("Warning: Rate limit cleanup interval not specified. Setting default value: %d seconds", defaultCleanup)
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
