package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr   string
	DatabaseURL  string
	OTLPEndpoint string
	Environment  string

	Jira    JiraConfig
	Jenkins JenkinsConfig
	QTest   QTestConfig
}

type JiraConfig struct {
	URL        string
	Username   string
	Token      string
	ProjectKey string
	BoardID    string
}

// IsConfigured reports whether the Jira integration can be used at all.
// Unconfigured integrations degrade to empty results, they never error.
func (c JiraConfig) IsConfigured() bool {
	return c.URL != "" && c.Username != "" && c.Token != ""
}

type JenkinsConfig struct {
	URL      string
	Username string
	Token    string
	// JobNames lists the CI jobs the sync loop watches.
	JobNames []string
}

func (c JenkinsConfig) IsConfigured() bool {
	return c.URL != ""
}

type QTestConfig struct {
	URL       string
	Username  string
	Password  string
	ProjectID string
}

func (c QTestConfig) IsConfigured() bool {
	return c.URL != "" && c.Username != "" && c.Password != ""
}

// Load reads .env (when present) and the environment. Only the database URL
// is mandatory; integrations are optional and gate themselves at call time.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		Jira: JiraConfig{
			URL:        os.Getenv("JIRA_URL"),
			Username:   os.Getenv("JIRA_USERNAME"),
			Token:      os.Getenv("JIRA_TOKEN"),
			ProjectKey: os.Getenv("JIRA_PROJECT_KEY"),
			BoardID:    os.Getenv("JIRA_BOARD_ID"),
		},
		Jenkins: JenkinsConfig{
			URL:      os.Getenv("JENKINS_URL"),
			Username: os.Getenv("JENKINS_USERNAME"),
			Token:    os.Getenv("JENKINS_TOKEN"),
			JobNames: splitList(os.Getenv("JENKINS_JOBS")),
		},
		QTest: QTestConfig{
			URL:       os.Getenv("QTEST_URL"),
			Username:  os.Getenv("QTEST_USERNAME"),
			Password:  os.Getenv("QTEST_PASSWORD"),
			ProjectID: os.Getenv("QTEST_PROJECT_ID"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
