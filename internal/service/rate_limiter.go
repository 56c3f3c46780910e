package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter impone un espaciado minimo entre operaciones de escritura
// sensibles. Acquire bloquea hasta que el turno del caller llega; no hay
// cola ni prioridades, solo espera.
type RateLimiter interface {
	Acquire()
}

type memoryRateLimiter struct {
	mu       sync.Mutex
	delay    time.Duration
	nextSlot time.Time
}

// NewMemoryRateLimiter crea el limiter local de proceso.
func NewMemoryRateLimiter(delay time.Duration) RateLimiter {
	return &memoryRateLimiter{delay: delay}
}

// Acquire reserva el proximo slot permitido bajo el lock y duerme afuera:
// dos callers concurrentes nunca computan la espera sobre el mismo
// timestamp viejo.
func (l *memoryRateLimiter) Acquire() {
	l.mu.Lock()
	now := time.Now()
	slot := l.nextSlot
	if slot.Before(now) {
		slot = now
	}
	l.nextSlot = slot.Add(l.delay)
	l.mu.Unlock()

	if wait := time.Until(slot); wait > 0 {
		time.Sleep(wait)
	}
}

// reserveSlotScript reserva atomicamente el proximo slot en redis y
// devuelve su timestamp en milisegundos.
const reserveSlotScript = `
local now = tonumber(ARGV[1])
local delay = tonumber(ARGV[2])
local slot = tonumber(redis.call("GET", KEYS[1]) or "0")
if slot < now then
  slot = now
end
redis.call("SET", KEYS[1], slot + delay, "PX", delay * 4)
return slot
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisRateLimiter struct {
	client redisEvaler
	delay  time.Duration
	key    string
}

// NewRedisRateLimiter comparte el espaciado entre procesos via redis.
// Ante un error de redis abre el paso en lugar de bloquear.
func NewRedisRateLimiter(client *redis.Client, delay time.Duration) RateLimiter {
	if client == nil {
		return nil
	}
	return &redisRateLimiter{
		client: client,
		delay:  delay,
		key:    "unfollow:rl:slot",
	}
}

func (l *redisRateLimiter) Acquire() {
	if l == nil || l.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	now := time.Now().UnixMilli()
	slot, err := l.client.Eval(ctx, reserveSlotScript, []string{l.key}, now, l.delay.Milliseconds()).Int64()
	if err != nil {
		return
	}
	if wait := slot - now; wait > 0 {
		time.Sleep(time.Duration(wait) * time.Millisecond)
	}
}
