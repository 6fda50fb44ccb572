package api

import "github.com/okian/frbviewer/pkg/logger"

// Default paging constants.
const (
	defaultPageLimit = 1_000
	defaultMaxLimit  = 10_000
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCredentials sets the HTTP Basic credentials guarding /api routes.
func WithCredentials(user, password string) Option {
	return func(s *Server) {
		s.user = user
		s.password = password
	}
}

// WithPageLimits sets the default and the maximum path-table page size.
func WithPageLimits(def, maxLimit int) Option {
	return func(s *Server) {
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
		if def > 0 {
			s.defaultLimit = def
		}
	}
}
