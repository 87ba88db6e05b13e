package librespot

import (
	"context"
	"sync"
	"time"

	"spotify-ap/login5"
)

// refreshMargin renews login5 tokens slightly before they lapse.
const refreshMargin = time.Minute

// login5Tokens serves bearer tokens from the login5 endpoint, refreshing
// through the stored credential once the current one is about to expire.
type login5Tokens struct {
	client *login5.Client
	now    func() time.Time

	mu     sync.Mutex
	result *login5.Result
}

func (l *login5Tokens) Token(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.result != nil && l.now().Before(l.result.ExpiresAt.Add(-refreshMargin)) {
		return l.result.AccessToken, nil
	}
	res, err := l.client.Refresh(ctx)
	if err != nil {
		return "", err
	}
	l.result = res
	return res.AccessToken, nil
}
