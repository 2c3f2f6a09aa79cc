package store

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/dskart/payment-engine/backend"
	"github.com/dskart/payment-engine/backend/dynamobackend"
	"github.com/dskart/payment-engine/backend/memorybackend"
	"github.com/dskart/payment-engine/backend/redisbackend"
	"github.com/dskart/payment-engine/backend/sqlitebackend"
)

// BackendConfig is the subset of config.StoreConfig the store package needs
// to build a concrete Backend, kept here (rather than importing the config
// package) so store has no dependency on the config loader's YAML/env
// concerns.
type BackendConfig struct {
	InMemory     bool
	RedisAddress string
	SQLitePath   string
	DynamoDB     *BackendDynamoDBConfig
}

type BackendDynamoDBConfig struct {
	Endpoint  string
	TableName string
}

// NewFromConfig selects and constructs exactly one concrete Backend,
// mirroring original_source/src/store/mod.rs's new_with_config dispatch.
func NewFromConfig(cfg BackendConfig) (*Store, error) {
	b, err := newBackendFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return New(b), nil
}

func newBackendFromConfig(cfg BackendConfig) (backend.Backend, error) {
	switch {
	case cfg.InMemory:
		return memorybackend.New(), nil
	case cfg.RedisAddress != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		return redisbackend.New(client), nil
	case cfg.SQLitePath != "":
		return sqlitebackend.New(cfg.SQLitePath)
	case cfg.DynamoDB != nil:
		awsCfg := aws.NewConfig()
		if cfg.DynamoDB.Endpoint != "" {
			awsCfg = awsCfg.WithEndpoint(cfg.DynamoDB.Endpoint)
		}
		sess, err := session.NewSession(awsCfg)
		if err != nil {
			return nil, fmt.Errorf("store: opening aws session: %w", err)
		}
		client := dynamodb.New(sess)
		return dynamobackend.New(client, cfg.DynamoDB.TableName), nil
	default:
		return nil, fmt.Errorf("store: invalid configuration: exactly one backend variant must be set")
	}
}
