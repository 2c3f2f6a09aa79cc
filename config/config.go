/*
Package config loads the engine's configuration from an optional YAML file
plus an environment overlay, the same two-step load original_source wires
up in src/store/config.rs and src/app/config.rs: a file (if present) seeds
defaults, then prefixed env vars override specific fields. Field names and
the env-var naming scheme follow those files exactly.

SEE ALSO:
  - store/config_backend.go's backend.Backend selection (NewFromConfig),
    which Config.NewStore drives
  - cmd/paymentengine/main.go, the only caller of Load
*/
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dskart/payment-engine/store"
)

// Config is the root configuration document.
type Config struct {
	Store StoreConfig `yaml:"Store"`
}

// StoreConfig selects exactly one backend variant. Exactly one of
// InMemory, RedisAddress, or DynamoDB must be set; SQLitePath is this
// repo's own addition to the original's in-memory/Redis/DynamoDB trio.
type StoreConfig struct {
	InMemory     bool            `yaml:"InMemory"`
	RedisAddress string          `yaml:"RedisAddress"`
	SQLitePath   string          `yaml:"SQLitePath"`
	DynamoDB     *DynamoDBConfig `yaml:"DynamoDB"`
}

type DynamoDBConfig struct {
	Endpoint  string `yaml:"Endpoint"`
	TableName string `yaml:"TableName"`
}

// Load reads path if it exists, or starts from a zero Config otherwise,
// then applies the PREFIX-scoped environment overlay.
func Load(path, envPrefix string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		}
	}

	cfg.loadFromEnv(envPrefix)
	return cfg, nil
}

// loadFromEnv mirrors original_source's per-field style: each field checks
// for its own PREFIX_STORE_* variable rather than walking the struct
// generically, matching what src/store/config.rs actually does.
func (c *Config) loadFromEnv(prefix string) {
	storePrefix := prefix + "STORE_"

	if v, ok := os.LookupEnv(storePrefix + "INMEMORY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Store.InMemory = b
		}
	}
	if v, ok := os.LookupEnv(storePrefix + "REDISADDRESS"); ok {
		c.Store.RedisAddress = v
	}
	if v, ok := os.LookupEnv(storePrefix + "SQLITEPATH"); ok {
		c.Store.SQLitePath = v
	}

	dynamoPrefix := storePrefix + "DYNAMODB_"
	tableName, hasTable := os.LookupEnv(dynamoPrefix + "TABLENAME")
	endpoint, hasEndpoint := os.LookupEnv(dynamoPrefix + "ENDPOINT")
	if hasTable || hasEndpoint {
		if c.Store.DynamoDB == nil {
			c.Store.DynamoDB = &DynamoDBConfig{}
		}
		if hasTable {
			c.Store.DynamoDB.TableName = tableName
		}
		if hasEndpoint {
			c.Store.DynamoDB.Endpoint = endpoint
		}
	}
}

// Validate enforces that exactly one backend variant is configured.
func (c *Config) Validate() error {
	count := 0
	if c.Store.InMemory {
		count++
	}
	if c.Store.RedisAddress != "" {
		count++
	}
	if c.Store.SQLitePath != "" {
		count++
	}
	if c.Store.DynamoDB != nil {
		count++
	}
	if count != 1 {
		return fmt.Errorf("config: exactly one of InMemory, RedisAddress, SQLitePath, or DynamoDB must be set, got %d", count)
	}
	return nil
}

// NewStore builds the Store this configuration selects, after validating it.
func (c *Config) NewStore() (*store.Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	backendCfg := store.BackendConfig{
		InMemory:     c.Store.InMemory,
		RedisAddress: c.Store.RedisAddress,
		SQLitePath:   c.Store.SQLitePath,
	}
	if c.Store.DynamoDB != nil {
		backendCfg.DynamoDB = &store.BackendDynamoDBConfig{
			Endpoint:  c.Store.DynamoDB.Endpoint,
			TableName: c.Store.DynamoDB.TableName,
		}
	}
	return store.NewFromConfig(backendCfg)
}
