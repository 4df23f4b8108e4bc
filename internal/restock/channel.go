package restock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Channel delivers one message to one address.
type Channel interface {
	Send(ctx context.Context, address, body string) error
}

// LogChannel writes notices to the log instead of delivering them. It is the
// default when no queue is configured.
type LogChannel struct {
	Logger *zap.Logger
}

func (c LogChannel) Send(_ context.Context, address, body string) error {
	c.Logger.Info("restock notice", zap.String("to", address), zap.String("body", body))
	return nil
}

// Message is the payload published for each notice. A mail worker
// subscribed to the channel does the actual delivery.
type Message struct {
	Address string    `json:"address"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sentAt"`
}

// RedisChannel publishes notices to a Redis pub/sub channel.
type RedisChannel struct {
	client  *redis.Client
	channel string
}

// NewRedisChannel returns a channel publishing on name through client.
func NewRedisChannel(client *redis.Client, name string) *RedisChannel {
	return &RedisChannel{client: client, channel: name}
}

func (c *RedisChannel) Send(ctx context.Context, address, body string) error {
	payload, err := encodeMessage(address, body, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := c.client.Publish(ctx, c.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", c.channel, err)
	}
	return nil
}

func encodeMessage(address, body string, at time.Time) ([]byte, error) {
	payload, err := json.Marshal(Message{Address: address, Body: body, SentAt: at})
	if err != nil {
		return nil, fmt.Errorf("encoding notice: %w", err)
	}
	return payload, nil
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}
