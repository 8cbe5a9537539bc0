package blob

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/linemark/internal/logger"
)

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok:%v err:%v, want absent", ok, err)
	}

	if err := s.Set(ctx, "b", []byte("first")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "b", []byte("second")); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if err := s.Set(ctx, "a", []byte{0x00, 0xff, 0x10}); err != nil {
		t.Fatalf("Set() binary error = %v", err)
	}

	data, ok, err := s.Get(ctx, "b")
	if err != nil || !ok || string(data) != "second" {
		t.Errorf("Get(b) = %q, %v, %v", data, ok, err)
	}
	data, _, _ = s.Get(ctx, "a")
	if !reflect.DeepEqual(data, []byte{0x00, 0xff, 0x10}) {
		t.Errorf("binary blob corrupted: %v", data)
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}

	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete() missing key error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, "b"); ok {
		t.Error("blob still present after Delete")
	}
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryCopiesData(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	buf := []byte("abc")
	_ = s.Set(ctx, "k", buf)
	buf[0] = 'x'

	got, _, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored blob aliased caller buffer: %q", got)
	}
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer s.Close()

	exerciseStore(t, s)

	if mr.TTL("a") != 0 {
		t.Error("blobs must not expire")
	}
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := DialRedis(context.Background(), RedisOptions{
		Addr:           mr.Addr(),
		ConnectTimeout: time.Second,
		RetryInterval:  10 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    200 * time.Millisecond,
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("DialRedis() error = %v", err)
	}
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestDialRedisFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := DialRedis(context.Background(), RedisOptions{
		URL:            "redis://" + mr.Addr() + "/0",
		Addr:           "unused:1",
		ConnectTimeout: time.Second,
		RetryInterval:  10 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    200 * time.Millisecond,
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("DialRedis() error = %v", err)
	}
	defer s.Close()

	if err := s.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Errorf("miniredis k = %q, want v", got)
	}
}

func TestDialRedisRejectsInvalidURL(t *testing.T) {
	_, err := DialRedis(context.Background(), RedisOptions{
		URL:            "http://not-redis",
		ConnectTimeout: time.Second,
		RetryInterval:  10 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
	}, logger.NewNop())
	if err == nil {
		t.Fatal("expected error for a non-redis url")
	}
}

func TestDialRedisGivesUp(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := DialRedis(context.Background(), RedisOptions{
		Addr:           addr,
		ConnectTimeout: 150 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        40 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}, logger.NewNop())
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}

func TestDialRedisRejectsInvalidOptions(t *testing.T) {
	_, err := DialRedis(context.Background(), RedisOptions{Addr: "localhost:0"}, logger.NewNop())
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "linemark.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linemark.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	if err := s.Set(ctx, "linemark:bookmarks", []byte("[]")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	s.Close()

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	data, ok, err := reopened.Get(ctx, "linemark:bookmarks")
	if err != nil || !ok || string(data) != "[]" {
		t.Errorf("Get() = %q, %v, %v", data, ok, err)
	}
}
