package editor

import (
	"log/slog"

	"github.com/goliatone/go-datatree/pkg/schema"
	"github.com/goliatone/go-datatree/pkg/session"
	"github.com/goliatone/go-datatree/pkg/tree"
)

// Option customises the editor configuration.
type Option func(*Editor)

// WithMode selects view or edit mode. Defaults to edit.
func WithMode(mode tree.Mode) Option {
	return func(e *Editor) {
		e.mode = mode
	}
}

// WithPageSize overrides the number of array items shown per page.
func WithPageSize(size int) Option {
	return func(e *Editor) {
		if size > 0 {
			e.pageSize = size
		}
	}
}

// WithLogger injects a structured logger. Skipped nodes and rejected
// mutations are reported through it.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHandlers attaches leaf callbacks to every built tree.
func WithHandlers(handlers tree.Handlers) Option {
	return func(e *Editor) {
		e.handlers = handlers
	}
}

// WithSession shares an existing session, e.g. one restored from disk.
func WithSession(s *session.Session) Option {
	return func(e *Editor) {
		if s != nil {
			e.session = s
		}
	}
}

// WithHideHidden omits nodes flagged hidden.
func WithHideHidden(hide bool) Option {
	return func(e *Editor) {
		e.hideHidden = hide
	}
}

// WithIdentityKeys sets the record identifiers Duplicate strips from copies.
func WithIdentityKeys(keys ...string) Option {
	return func(e *Editor) {
		e.identityKeys = append([]string{}, keys...)
	}
}

// WithResolverOptions forwards options to the schema resolver.
func WithResolverOptions(options ...schema.Option) Option {
	return func(e *Editor) {
		e.resolverOptions = append(e.resolverOptions, options...)
	}
}
