package models

import "time"

// Session is the set of cookies issued by the portal after a successful login.
type Session struct {
	Cookies    map[string]string `json:"cookies"`
	ObtainedAt time.Time         `json:"obtained_at"`
}

// IsZero reports whether the session carries no cookies.
func (s Session) IsZero() bool {
	return len(s.Cookies) == 0
}

// Cookie returns the named cookie value or "" if absent.
func (s Session) Cookie(name string) string {
	if s.Cookies == nil {
		return ""
	}
	return s.Cookies[name]
}

// Filter returns a copy holding only the named cookies that are present.
func (s Session) Filter(names ...string) map[string]string {
	out := make(map[string]string, len(names))
	for _, n := range names {
		if v, ok := s.Cookies[n]; ok {
			out[n] = v
		}
	}
	return out
}

// Equal reports whether two sessions hold the same cookies.
func (s Session) Equal(o Session) bool {
	if len(s.Cookies) != len(o.Cookies) {
		return false
	}
	for k, v := range s.Cookies {
		if ov, ok := o.Cookies[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
