// Package memory holds map-backed repositories used by tests and by the
// api in APP_STORE=memory mode. All views share one Store and one lock so
// multi-row writes are atomic.
package memory

import (
	"sync"

	"github.com/geocoder89/staroracle/internal/domain/alert"
	"github.com/geocoder89/staroracle/internal/domain/note"
	"github.com/geocoder89/staroracle/internal/domain/preferences"
	"github.com/geocoder89/staroracle/internal/domain/session"
	"github.com/geocoder89/staroracle/internal/domain/user"
	"github.com/geocoder89/staroracle/internal/domain/watchlist"
)

type Store struct {
	mu          sync.RWMutex
	users       map[string]user.User              // by id
	researchers map[string]user.ResearcherProfile // by user id
	sessions    map[string]session.Session        // by id
	watchlist   map[string]watchlist.Entry        // by user id + asteroid id
	notes       map[string]note.Note              // by id
	preferences map[string]preferences.Preferences
	alerts      []alert.Alert
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]user.User),
		researchers: make(map[string]user.ResearcherProfile),
		sessions:    make(map[string]session.Session),
		watchlist:   make(map[string]watchlist.Entry),
		notes:       make(map[string]note.Note),
		preferences: make(map[string]preferences.Preferences),
	}
}

func (s *Store) Users() *UsersRepo             { return &UsersRepo{s: s} }
func (s *Store) Accounts() *AccountsRepo       { return &AccountsRepo{s: s} }
func (s *Store) Sessions() *SessionsRepo       { return &SessionsRepo{s: s} }
func (s *Store) Watchlist() *WatchlistRepo     { return &WatchlistRepo{s: s} }
func (s *Store) Notes() *NotesRepo             { return &NotesRepo{s: s} }
func (s *Store) Preferences() *PreferencesRepo { return &PreferencesRepo{s: s} }
func (s *Store) Alerts() *AlertsRepo           { return &AlertsRepo{s: s} }

// Counts reports row counts per table.
type Counts struct {
	Users       int
	Researchers int
	Sessions    int
	Preferences int
}

func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Counts{
		Users:       len(s.users),
		Researchers: len(s.researchers),
		Sessions:    len(s.sessions),
		Preferences: len(s.preferences),
	}
}
