package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Oracle OracleConfig
	Attack AttackConfig
}

// OracleConfig holds the oracle service configuration, both sides of the wire
type OracleConfig struct {
	Host    string
	Port    int
	Cipher  string
	Secret  string
	Key     string
	Rate    float64
	Retries uint64
	Timeout time.Duration
}

// AttackConfig holds the attack engine tuning
type AttackConfig struct {
	BlockWorkers     int
	CandidateWorkers int
	Verify           string
	Debug            bool
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Oracle: OracleConfig{
			Host:    getEnv("ORACLE_HOST", "127.0.0.1"),
			Port:    getEnvInt("ORACLE_PORT", 8000),
			Cipher:  getEnv("ORACLE_CIPHER", "aes"),
			Secret:  getEnv("ORACLE_SECRET", "HelloPaddingOracleWorld!"),
			Key:     getEnv("ORACLE_KEY", ""),
			Rate:    getEnvFloat("ORACLE_RATE", 0),
			Retries: uint64(getEnvInt("ORACLE_RETRIES", 5)),
			Timeout: getEnvDuration("ORACLE_TIMEOUT", 5*time.Second),
		},
		Attack: AttackConfig{
			BlockWorkers:     getEnvInt("ATTACK_BLOCK_WORKERS", 1),
			CandidateWorkers: getEnvInt("ATTACK_CANDIDATE_WORKERS", 1),
			Verify:           getEnv("ATTACK_VERIFY", "adjacent"),
			Debug:            getEnvBool("ATTACK_DEBUG", false),
		},
	}
}

// Addr returns the oracle listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Oracle.Host, c.Oracle.Port)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`
Oracle: %s (cipher %s, rate %.1f/s, %d retries, timeout %s)
Secret: ***, key: ***
Attack: %d block workers, %d candidate workers, verify=%s`,
		c.Addr(), c.Oracle.Cipher, c.Oracle.Rate, c.Oracle.Retries, c.Oracle.Timeout,
		c.Attack.BlockWorkers, c.Attack.CandidateWorkers, c.Attack.Verify,
	)
}
