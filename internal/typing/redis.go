package typing

import (
	"context"
	"strconv"
	"time"

	"brosolve-backend-go/internal/models"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "typing:"

// Redis shares presence across instances. Each complaint is a hash with one
// field per side plus the last update in unix milliseconds; the key TTL only
// garbage-collects, the Window check on read decides expiry.
type Redis struct {
	client *goredis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedis(client *goredis.Client) *Redis {
	return &Redis{client: client, ttl: time.Minute, now: time.Now}
}

func (r *Redis) Set(ctx context.Context, complaintID string, side models.Side, isTyping bool) error {
	field := "student"
	if side == models.SideAdmin {
		field = "admin"
	}
	key := keyPrefix + complaintID
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, field, boolString(isTyping), "updatedAt", strconv.FormatInt(r.now().UnixMilli(), 10))
	pipe.Expire(ctx, key, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Get(ctx context.Context, complaintID string) (Status, error) {
	key := keyPrefix + complaintID
	values, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return Status{}, err
	}
	if len(values) == 0 {
		return Status{}, nil
	}
	updatedMs, err := strconv.ParseInt(values["updatedAt"], 10, 64)
	if err != nil || expired(time.UnixMilli(updatedMs), r.now()) {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return Status{}, err
		}
		return Status{}, nil
	}
	return Status{
		StudentTyping: values["student"] == "1",
		AdminTyping:   values["admin"] == "1",
	}, nil
}

func boolString(value bool) string {
	if value {
		return "1"
	}
	return "0"
}
