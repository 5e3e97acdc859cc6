package app

import (
	"context"
	"sync"

	"codeduel/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProfileLookup resolves external coding profiles, typically through a cache.
type ProfileLookup interface {
	GetProfile(ctx context.Context, username string) (domain.Profile, error)
}

// ProfileService is best-effort enrichment: lookup failures never spread to
// other operations.
type ProfileService struct {
	lookup    ProfileLookup
	usernames map[domain.User]string
	logger    *zap.Logger
}

func NewProfileService(lookup ProfileLookup, usernames map[domain.User]string, logger *zap.Logger) *ProfileService {
	return &ProfileService{lookup: lookup, usernames: usernames, logger: logger}
}

func (s *ProfileService) Get(ctx context.Context, username string) (domain.Profile, error) {
	return s.lookup.GetProfile(ctx, username)
}

// Both fetches the profile of each participant concurrently. A failed lookup
// yields a nil entry instead of an error.
func (s *ProfileService) Both(ctx context.Context) map[string]*domain.Profile {
	out := make(map[string]*domain.Profile, len(domain.Users))
	var mu sync.Mutex
	var g errgroup.Group

	for _, u := range domain.Users {
		out[u.String()] = nil
	}
	for _, u := range domain.Users {
		u := u
		username, ok := s.usernames[u]
		if !ok || username == "" {
			continue
		}
		g.Go(func() error {
			p, err := s.lookup.GetProfile(ctx, username)
			if err != nil {
				s.logger.Warn("profile lookup failed", zap.String("user", u.String()), zap.String("username", username), zap.Error(err))
				return nil
			}
			mu.Lock()
			out[u.String()] = &p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
