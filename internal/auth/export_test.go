package auth

import "time"

func SetSessionClock(s *SessionStore, now func() time.Time) {
	s.now = now
}
