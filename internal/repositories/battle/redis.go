package battle

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/tactics-api/internal/redis"
)

const (
	// Key pattern: battle:{battle_id}
	battleKeyPrefix = "battle:"

	// Index set holding all stored battle IDs
	battleIndexKey = "battles"

	// Error messages
	errBattleNil     = "battle cannot be nil"
	errBattleIDEmpty = "battle ID cannot be empty"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	if c.Clock == nil {
		return errors.InvalidArgument("clock is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// NewRedisRepository creates a new Redis repository for battles
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

// Create stores a new battle. Fails when the ID is already taken.
func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Battle == nil {
		return nil, errors.InvalidArgument(errBattleNil)
	}
	if input.Battle.ID == "" {
		return nil, errors.InvalidArgument(errBattleIDEmpty)
	}

	battle := *input.Battle
	now := r.clock.Now()
	battle.CreatedAt = now
	battle.UpdatedAt = now

	battleJSON, err := json.Marshal(&battle)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal battle")
	}

	key := r.buildKey(battle.ID)
	stored, err := r.client.SetNX(ctx, key, battleJSON, 0).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to store battle in Redis")
	}
	if !stored {
		return nil, errors.AlreadyExistsf("battle %s already exists", battle.ID)
	}

	if err := r.client.SAdd(ctx, battleIndexKey, battle.ID).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to index battle")
	}

	return &CreateOutput{Battle: &battle}, nil
}

// Get retrieves a battle by ID
func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.BattleID == "" {
		return nil, errors.InvalidArgument(errBattleIDEmpty)
	}

	battleJSON, err := r.client.Get(ctx, r.buildKey(input.BattleID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("battle %s not found", input.BattleID)
		}
		return nil, errors.Wrapf(err, "failed to get battle from Redis")
	}

	var battle entities.Battle
	if err := json.Unmarshal([]byte(battleJSON), &battle); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal battle")
	}

	return &GetOutput{Battle: &battle}, nil
}

// Update replaces an existing battle
func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Battle == nil {
		return nil, errors.InvalidArgument(errBattleNil)
	}
	if input.Battle.ID == "" {
		return nil, errors.InvalidArgument(errBattleIDEmpty)
	}

	battle := *input.Battle
	battle.UpdatedAt = r.clock.Now()

	battleJSON, err := json.Marshal(&battle)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal battle")
	}

	key := r.buildKey(battle.ID)
	stored, err := r.client.SetXX(ctx, key, battleJSON, 0).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to update battle in Redis")
	}
	if !stored {
		return nil, errors.NotFoundf("battle %s not found", battle.ID)
	}

	return &UpdateOutput{Battle: &battle}, nil
}

// Delete removes a battle and its index entry
func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.BattleID == "" {
		return nil, errors.InvalidArgument(errBattleIDEmpty)
	}

	deleted, err := r.client.Del(ctx, r.buildKey(input.BattleID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to delete battle from Redis")
	}
	if deleted == 0 {
		return nil, errors.NotFoundf("battle %s not found", input.BattleID)
	}

	if err := r.client.SRem(ctx, battleIndexKey, input.BattleID).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to unindex battle")
	}

	return &DeleteOutput{}, nil
}

// List returns the IDs of all stored battles
func (r *redisRepository) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	ids, err := r.client.SMembers(ctx, battleIndexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list battles")
	}
	return &ListOutput{BattleIDs: ids}, nil
}

// buildKey creates the Redis key for a battle
func (r *redisRepository) buildKey(battleID string) string {
	return battleKeyPrefix + battleID
}
