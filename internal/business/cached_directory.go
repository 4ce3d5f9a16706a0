package business

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// credentials are the profile fields never written to Redis.
type credentials struct {
	mailPassword string
	smsParams    []SMSParam
	expires      time.Time
}

// CachedDirectory serves profiles from Redis and fills misses from the
// wrapped directory. Redis failures degrade to direct lookups. Redis only
// holds the profile without credentials; those stay in process memory for
// the same TTL, and a Redis hit without them is treated as a miss.
type CachedDirectory struct {
	next   Directory
	cache  cache
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	secrets map[int64]credentials
}

func NewCachedDirectory(next Directory, client cache, ttl time.Duration, logger zerolog.Logger) *CachedDirectory {
	return &CachedDirectory{
		next:    next,
		cache:   client,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		secrets: make(map[int64]credentials),
	}
}

func cacheKey(businessID int64) string {
	return "business:profile:" + strconv.FormatInt(businessID, 10)
}

func (d *CachedDirectory) Profile(ctx context.Context, businessID int64) (Profile, error) {
	key := cacheKey(businessID)
	raw, err := d.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p Profile
		if err := json.Unmarshal(raw, &p); err != nil {
			d.logger.Warn().Str("key", key).Msg("discarding undecodable cached profile")
			break
		}
		if creds, ok := d.credentials(businessID); ok {
			p.Email.Password = creds.mailPassword
			p.SMS.Params = append([]SMSParam(nil), creds.smsParams...)
			return p, nil
		}
	case !errors.Is(err, redis.Nil):
		d.logger.Warn().Err(err).Str("key", key).Msg("profile cache read failed")
	}

	p, err := d.next.Profile(ctx, businessID)
	if err != nil {
		return Profile{}, err
	}
	d.remember(businessID, p)

	body, err := json.Marshal(redact(p))
	if err != nil {
		return p, nil
	}
	if err := d.cache.Set(ctx, key, body, d.ttl).Err(); err != nil {
		d.logger.Warn().Err(err).Str("key", key).Msg("profile cache write failed")
	}
	return p, nil
}

func (d *CachedDirectory) credentials(businessID int64) (credentials, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.secrets[businessID]
	if !ok {
		return credentials{}, false
	}
	if !d.now().Before(c.expires) {
		delete(d.secrets, businessID)
		return credentials{}, false
	}
	return c, true
}

func (d *CachedDirectory) remember(businessID int64, p Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.secrets[businessID] = credentials{
		mailPassword: p.Email.Password,
		smsParams:    append([]SMSParam(nil), p.SMS.Params...),
		expires:      d.now().Add(d.ttl),
	}
}

// redact strips the mail password and gateway params, which carry API keys.
func redact(p Profile) Profile {
	p.Email.Password = ""
	p.SMS.Params = nil
	return p
}
