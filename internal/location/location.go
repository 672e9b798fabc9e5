package location

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"wikiexplorer/internal/logging"
	"wikiexplorer/internal/model"
)

// DefaultTimeout bounds a single location request.
const DefaultTimeout = 15 * time.Second

// Authorization is the user's decision about sharing their position.
type Authorization int

const (
	AuthorizationGranted Authorization = iota
	AuthorizationDenied
	AuthorizationRestricted
)

func (a Authorization) String() string {
	switch a {
	case AuthorizationDenied:
		return "denied"
	case AuthorizationRestricted:
		return "restricted"
	default:
		return "granted"
	}
}

// Source produces position fixes. Request starts a lookup and reports its
// outcome through deliver. A source may call deliver late or more than once;
// only the first outcome the Resolver sees counts.
type Source interface {
	Authorization() Authorization
	Request(ctx context.Context, deliver func(model.Geo, error))
}

// Provider resolves the current position.
type Provider interface {
	CurrentLocation(ctx context.Context) (model.Geo, error)
}

// Resolver adapts a callback-based Source into a blocking Provider with a
// timeout.
type Resolver struct {
	source  Source
	timeout time.Duration
	log     *slog.Logger
}

type Option func(*Resolver)

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver creates a Resolver reading fixes from source.
func NewResolver(source Source, opts ...Option) *Resolver {
	r := &Resolver{
		source:  source,
		timeout: DefaultTimeout,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CurrentLocation returns the first of: a fix, a source failure, the timeout
// or cancellation of ctx. Failures are one of ErrLocationDenied,
// ErrLocationRestricted, ErrLocationUnavailable and ErrRequestTimeout;
// cancellation returns ctx.Err().
func (r *Resolver) CurrentLocation(ctx context.Context) (model.Geo, error) {
	switch auth := r.source.Authorization(); auth {
	case AuthorizationDenied:
		return model.Geo{}, model.ErrLocationDenied
	case AuthorizationRestricted:
		return model.Geo{}, model.ErrLocationRestricted
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	f := newFix()
	timer := time.AfterFunc(r.timeout, func() {
		if f.resolve(model.Geo{}, model.ErrRequestTimeout) {
			r.log.Warn("location request timed out", "timeout", r.timeout)
		}
	})
	defer timer.Stop()

	go r.source.Request(reqCtx, func(g model.Geo, err error) {
		if err != nil {
			err = classify(err)
		}
		if !f.resolve(g, err) {
			r.log.Debug("late location delivery ignored")
		}
	})

	select {
	case <-f.done:
		if f.err != nil {
			return model.Geo{}, f.err
		}
		r.log.Debug("location resolved", "lat", f.geo.Lat, "lon", f.geo.Lon)
		return f.geo, nil
	case <-ctx.Done():
		f.resolve(model.Geo{}, ctx.Err())
		return model.Geo{}, ctx.Err()
	}
}

// fix is a value that resolves exactly once.
type fix struct {
	once sync.Once
	done chan struct{}
	geo  model.Geo
	err  error
}

func newFix() *fix {
	return &fix{done: make(chan struct{})}
}

func (f *fix) resolve(g model.Geo, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.geo, f.err = g, err
		close(f.done)
		resolved = true
	})
	return resolved
}

// classify narrows source failures to the location error kinds.
func classify(err error) error {
	var e model.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case model.KindLocationDenied, model.KindLocationRestricted,
			model.KindLocationUnavailable, model.KindRequestTimeout:
			return e
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if model.Classify(err).Kind == model.KindRequestTimeout {
		return model.ErrRequestTimeout
	}
	return model.ErrLocationUnavailable
}
