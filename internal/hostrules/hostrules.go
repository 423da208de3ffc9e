// Package hostrules resolves credentials for a host from a pre-populated
// rule set. It never performs network calls.
package hostrules

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Host types understood by the rule store.
const (
	HostTypeGitHub = "github"
	HostTypeGitLab = "gitlab"
	HostTypeGo     = "go"
)

// GitHubAPIURL is the canonical base URL for github.com credentials.
const GitHubAPIURL = "https://api.github.com/"

const memoSize = 128

// Rule binds a token to a host type and base URL.
type Rule struct {
	HostType string
	BaseURL  string
	Token    string
}

// Credentials is the result of a lookup. Token is empty when no rule matched.
type Credentials struct {
	HostType string
	BaseURL  string
	Token    string
}

// HasToken reports whether a token was found.
func (c Credentials) HasToken() bool {
	return c.Token != ""
}

// Store is an in-memory rule set. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	rules []Rule
	memo  *lru.Cache[string, Credentials]
}

// NewStore creates a store seeded with rules.
func NewStore(rules ...Rule) *Store {
	memo, err := lru.New[string, Credentials](memoSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	s := &Store{memo: memo}
	for _, r := range rules {
		s.Add(r)
	}
	return s
}

// Add registers a rule. Rules without a token are ignored.
func (s *Store) Add(r Rule) {
	if r.Token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
	s.memo.Purge()
}

// Len returns the number of registered rules.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// Find returns the credentials of the most specific rule matching hostType
// and baseURL. A rule with an empty HostType matches any type; a rule with
// an empty BaseURL matches any URL. Among matches the longest BaseURL wins,
// then an exact host type beats a wildcard.
func (s *Store) Find(hostType, baseURL string) Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := hostType + "\x00" + baseURL
	if c, ok := s.memo.Get(key); ok {
		return c
	}

	var (
		best      *Rule
		bestScore = -1
	)
	for i := range s.rules {
		r := &s.rules[i]
		if r.HostType != "" && r.HostType != hostType {
			continue
		}
		if r.BaseURL != "" && !strings.HasPrefix(normalizeURL(baseURL), normalizeURL(r.BaseURL)) {
			continue
		}
		score := len(normalizeURL(r.BaseURL)) * 2
		if r.HostType != "" {
			score++
		}
		if score > bestScore {
			best, bestScore = r, score
		}
	}

	c := Credentials{HostType: hostType, BaseURL: baseURL}
	if best != nil {
		c.Token = best.Token
	}
	s.memo.Add(key, c)
	return c
}

func normalizeURL(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if u != "" && !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}
