package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/linemark/internal/logger"
)

// RedisOptions describes the connection and its retry policy.
type RedisOptions struct {
	URL          string // redis:// or rediss:// URL; replaces Addr, User, Password and DB
	Addr         string
	User         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	ConnectTimeout time.Duration // total time allowed for connection attempts
	RetryInterval  time.Duration // first wait between attempts, doubled each time
	MaxWait        time.Duration // cap of the wait between attempts
	PingTimeout    time.Duration // per attempt
	WarnThreshold  int           // attempts logged as warnings before escalating
}

func (o RedisOptions) validate() error {
	switch {
	case o.ConnectTimeout <= 0:
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout)
	case o.RetryInterval <= 0:
		return fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval)
	case o.MaxWait <= 0:
		return fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait)
	case o.PingTimeout <= 0:
		return fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout)
	case o.WarnThreshold < 0:
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

// client builds the go-redis options. Zero timeouts and pool size keep
// the library defaults, or the ones carried by the URL.
func (o RedisOptions) client() (*redis.Options, error) {
	c := &redis.Options{
		Addr:     o.Addr,
		Username: o.User,
		Password: o.Password,
		DB:       o.DB,
	}
	if o.URL != "" {
		parsed, err := redis.ParseURL(o.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		c = parsed
	}
	if o.DialTimeout > 0 {
		c.DialTimeout = o.DialTimeout
	}
	if o.ReadTimeout > 0 {
		c.ReadTimeout = o.ReadTimeout
	}
	if o.WriteTimeout > 0 {
		c.WriteTimeout = o.WriteTimeout
	}
	if o.PoolSize > 0 {
		c.PoolSize = o.PoolSize
	}
	return c, nil
}

// DialRedis connects with exponential backoff until ConnectTimeout (or
// ctx) runs out.
func DialRedis(ctx context.Context, opts RedisOptions, log logger.Logger) (*Redis, error) {
	if err := opts.validate(); err != nil {
		log.Error("invalid redis options", logger.Error(err))
		return nil, err
	}

	clientOpts, err := opts.client()
	if err != nil {
		log.Error("invalid redis url", logger.Error(err))
		return nil, err
	}
	opts.Addr = clientOpts.Addr
	client := redis.NewClient(clientOpts)

	if err := pingWithRetry(ctx, client, opts, log); err != nil {
		client.Close()
		return nil, err
	}
	return NewRedis(client), nil
}

func pingWithRetry(parent context.Context, client *redis.Client, opts RedisOptions, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(parent, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis",
		logger.String("addr", opts.Addr),
		logger.Duration("timeout", opts.ConnectTimeout))

	start := time.Now()
	wait := opts.RetryInterval
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected to redis after retry",
					logger.String("addr", opts.Addr),
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected to redis", logger.String("addr", opts.Addr))
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable - giving up",
				logger.String("addr", opts.Addr),
				logger.Int("attempts", attempt),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				opts.Addr, attempt, opts.ConnectTimeout, err)
		case <-timer.C:
		}

		fields := []logger.Field{
			logger.String("addr", opts.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err),
		}
		if attempt <= opts.WarnThreshold {
			log.Warn("redis connection failed, retrying", fields...)
		} else {
			log.Error("redis still unavailable, retrying", fields...)
		}

		wait *= 2
		if wait > opts.MaxWait {
			wait = opts.MaxWait
		}
	}
}
