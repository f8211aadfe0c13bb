package screen

import (
	"context"
	"errors"
	"log/slog"

	"github.com/psychotest/psychotest/internal/auth"
	"github.com/psychotest/psychotest/internal/relation"
)

// ErrStale is returned when the caller went away before the read finished.
// The result is discarded.
var ErrStale = errors.New("screen: caller cancelled before the result arrived")

// Result is what a screen shows: the normalized records and, when the read
// failed, a notice for the user. Records is never nil.
type Result struct {
	Records []relation.Record
	Notice  string
}

// Loader runs the fetch and normalize steps of a screen. The caller's role
// must already have been checked.
type Loader struct {
	fetcher relation.Fetcher
	opts    relation.Options
}

// NewLoader creates a Loader reading through fetcher and rendering display
// dates with opts.
func NewLoader(fetcher relation.Fetcher, opts relation.Options) *Loader {
	return &Loader{fetcher: fetcher, opts: opts}
}

// Load reads the screen for identity. A failed read is logged and degrades
// to an empty result with the screen's notice; it is not returned as an
// error. Load returns ErrStale if ctx is done by the time the read returns
// and auth.ErrForbidden if identity holds another role than the screen's.
func (l *Loader) Load(ctx context.Context, s Screen, identity auth.Identity) (Result, error) {
	if identity.Role != s.Role {
		return Result{}, auth.ErrForbidden
	}

	rows, err := l.fetcher.Fetch(ctx, s.Spec, identity)
	if ctx.Err() != nil {
		return Result{}, ErrStale
	}
	if err != nil {
		var fe *relation.FetchError
		if errors.As(err, &fe) {
			slog.Error("screen fetch failed", "screen", s.Name, "table", fe.Table, "error", fe.Err)
		} else {
			slog.Error("screen fetch failed", "screen", s.Name, "error", err)
		}
		return Result{Records: []relation.Record{}, Notice: s.Notice}, nil
	}

	return Result{Records: relation.NormalizeWith(rows, s.Spec, l.opts)}, nil
}
