package jukebox

import (
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"golang.org/x/time/rate"
)

const (
	// Each user may send a burst of commands, refilled once a second
	defaultUserRate  = rate.Limit(1)
	defaultUserBurst = 3
	// Limiters unused for this long are forgotten
	limiterIdle = 10 * time.Minute
)

type userLimiter struct {
	l    *rate.Limiter
	seen time.Time
}

// limiter rate limits commands per user
type limiter struct {
	mu    sync.Mutex
	users map[discord.UserID]*userLimiter
	r     rate.Limit
	b     int
	now   func() time.Time
}

func newLimiter(r rate.Limit, b int) *limiter {
	return &limiter{
		users: make(map[discord.UserID]*userLimiter),
		r:     r,
		b:     b,
		now:   time.Now,
	}
}

func (l *limiter) Allow(uid discord.UserID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ul, ok := l.users[uid]
	if !ok {
		l.prune(now)
		ul = &userLimiter{l: rate.NewLimiter(l.r, l.b)}
		l.users[uid] = ul
	}
	ul.seen = now
	return ul.l.AllowN(now, 1)
}

func (l *limiter) prune(now time.Time) {
	for uid, ul := range l.users {
		if now.Sub(ul.seen) > limiterIdle {
			delete(l.users, uid)
		}
	}
}
