package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"task_tracker/internal/user"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// userRecord is the stored form of a user. user.User hides the hash from
// JSON, so it cannot be marshalled directly.
type userRecord struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	HashedPassword string `json:"hashed_password"`
	Role           string `json:"role"`
}

func userKey(username string) string {
	return "user:" + username
}

type UserRepository struct {
	rdb *redis.Client
}

func NewUserRepository(rdb *redis.Client) *UserRepository {
	return &UserRepository{rdb: rdb}
}

// Create stores u with SETNX, so a second registration of the same name
// fails without touching the first record.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	record := userRecord{
		ID:             uuid.NewString(),
		Username:       u.Username,
		HashedPassword: u.HashedPassword,
		Role:           string(u.Role),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	ok, err := r.rdb.SetNX(ctx, userKey(u.Username), data, 0).Result()
	if err != nil {
		return storeError("create user", err)
	}
	if !ok {
		return user.ErrUsernameTaken
	}

	u.ID = record.ID
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	data, err := r.rdb.Get(ctx, userKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, user.ErrUserNotFound
		}
		return nil, storeError("get user", err)
	}

	var record userRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, storeError("decode user", err)
	}

	return &user.User{
		ID:             record.ID,
		Username:       record.Username,
		HashedPassword: record.HashedPassword,
		Role:           user.Role(record.Role),
	}, nil
}
