package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/faktura/internal/config"
)

const keyAssistantOrg = "assistant:chat:org:%s"

// AssistantLimiter throttles chat requests per organization. Rates come from
// the runtime config holder so they can change without a restart.
type AssistantLimiter struct {
	bucket  *TokenBucket
	runtime *config.RuntimeHolder
}

func NewAssistantLimiter(bucket *TokenBucket, runtime *config.RuntimeHolder) *AssistantLimiter {
	return &AssistantLimiter{
		bucket:  bucket,
		runtime: runtime,
	}
}

func (l *AssistantLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *AssistantLimiter) Allow(ctx context.Context, orgID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	limits := l.runtime.Get()
	key := fmt.Sprintf(keyAssistantOrg, strings.TrimSpace(orgID))
	return l.bucket.Allow(ctx, key, limits.AssistantRatePerSecond, limits.AssistantBurst)
}
