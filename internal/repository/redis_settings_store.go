package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"TradePilot/internal/domain/models"
	"TradePilot/internal/domain/repository"
)

// RedisSettingsStore keeps per-account trading settings as JSON values
// in Redis. Settings are small and read at the start of every cycle, so
// a key-value store fits better than the analytical store.
type RedisSettingsStore struct {
	client *redis.Client
}

var _ repository.SettingsStore = (*RedisSettingsStore)(nil)

func NewRedisSettingsStore(client *redis.Client) *RedisSettingsStore {
	return &RedisSettingsStore{client: client}
}

func settingsKey(accountID string) string {
	return "tradepilot:account:" + accountID + ":config"
}

func (s *RedisSettingsStore) GetAccountConfig(ctx context.Context, accountID string) (models.AccountConfig, error) {
	raw, err := s.client.Get(ctx, settingsKey(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.AccountConfig{}, fmt.Errorf("%w: no settings for account %s", models.ErrInvalidConfiguration, accountID)
	}
	if err != nil {
		return models.AccountConfig{}, fmt.Errorf("get settings: %w", err)
	}

	var cfg models.AccountConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return models.AccountConfig{}, fmt.Errorf("%w: decode settings: %v", models.ErrInvalidConfiguration, err)
	}
	return cfg, nil
}

func (s *RedisSettingsStore) SaveAccountConfig(ctx context.Context, cfg models.AccountConfig) error {
	if cfg.AccountID == "" {
		return fmt.Errorf("%w: account id required", models.ErrInvalidConfiguration)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.client.Set(ctx, settingsKey(cfg.AccountID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// UpdateAccountConfig applies a partial update and returns the stored
// result.
func (s *RedisSettingsStore) UpdateAccountConfig(ctx context.Context, accountID string, patch models.AccountConfigPatch) (models.AccountConfig, error) {
	cfg, err := s.GetAccountConfig(ctx, accountID)
	if err != nil {
		return models.AccountConfig{}, err
	}
	cfg = patch.Apply(cfg)
	if err := s.SaveAccountConfig(ctx, cfg); err != nil {
		return models.AccountConfig{}, err
	}
	return cfg, nil
}
