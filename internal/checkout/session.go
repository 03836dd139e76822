package checkout

import (
	"sync"

	"github.com/flicky/go-storefront/internal/model"
)

// Session is the signed-in customer's context: populated on login, cleared
// on logout. Pass it explicitly to whatever needs it.
type Session struct {
	mu      sync.RWMutex
	token   string
	profile *model.UserProfile
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) SignIn(token string, profile model.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.profile = &profile
}

func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.profile = nil
}

// Token implements client.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) Profile() (model.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return model.UserProfile{}, false
	}
	return *s.profile, true
}

func (s *Session) SetProfile(profile model.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &profile
}
