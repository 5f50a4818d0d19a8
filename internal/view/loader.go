package view

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BlackMission/graphprofile/internal/domain"
)

// PhotoPathPrefix is where stored photos are served from.
const PhotoPathPrefix = "/photo/"

// Status is the observable state of the profile view.
type Status int

const (
	// StatusInteracting means the user must go through the interactive login first.
	StatusInteracting Status = iota
	// StatusAuthenticated means the view can render profile, photo and logout.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "interacting"
	}
}

// State is what one page load shows.
type State struct {
	Status  Status
	Profile *domain.ProfileRecord
	// Photo is empty when the user has no photo or it could not be fetched.
	Photo domain.PhotoRef
}

// TokenSource hands out access tokens for the active account.
type TokenSource interface {
	AcquireToken(ctx context.Context) (string, error)
}

// GraphAPI is the part of Microsoft Graph the view reads.
type GraphAPI interface {
	Me(ctx context.Context, accessToken string) (*domain.ProfileRecord, error)
	Photo(ctx context.Context, accessToken string) (*domain.Photo, error)
}

// PhotoStore keeps fetched photos so they can be served back to the browser.
type PhotoStore interface {
	StorePhoto(p domain.Photo) string
}

// Observer is notified of every Graph call outcome.
type Observer interface {
	ObserveGraph(resource, outcome string)
}

// Loader fetches what the profile view shows.
type Loader struct {
	graph    GraphAPI
	logger   *zap.Logger
	observer Observer
	inflight singleflight.Group
}

// NewLoader creates a Loader. observer may be nil.
func NewLoader(graph GraphAPI, logger *zap.Logger, observer Observer) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{graph: graph, logger: logger, observer: observer}
}

// Load fetches the profile and the photo concurrently. key identifies the
// session: concurrent loads with the same key share one Graph call per resource.
//
// A missing active account or an interaction-required token failure on either
// fetch puts the view in StatusInteracting. Any other failure only leaves the
// corresponding field empty.
func (l *Loader) Load(ctx context.Context, key string, tokens TokenSource, photos PhotoStore) State {
	var (
		wg         sync.WaitGroup
		profile    *domain.ProfileRecord
		photo      domain.PhotoRef
		profileErr error
		photoErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		v, err := l.shared(ctx, key+"/profile", func(ctx context.Context) (any, error) {
			return l.fetchProfile(ctx, tokens)
		})
		profileErr = err
		if err == nil {
			profile = v.(*domain.ProfileRecord)
		}
	}()
	go func() {
		defer wg.Done()
		v, err := l.shared(ctx, key+"/photo", func(ctx context.Context) (any, error) {
			return l.fetchPhoto(ctx, tokens, photos)
		})
		photoErr = err
		if err == nil {
			photo = v.(domain.PhotoRef)
		}
	}()
	wg.Wait()

	state := State{Status: StatusAuthenticated, Profile: profile, Photo: photo}
	for _, err := range []error{profileErr, photoErr} {
		if needsInteraction(err) {
			state.Status = StatusInteracting
		}
	}
	return state
}

// shared joins the in-flight call for key or starts one. The call runs detached
// from the cancellation of whichever load started it, so one caller going away
// does not fail the others; each caller still stops waiting when its own ctx
// is done. The Graph client's timeout bounds the detached call.
func (l *Loader) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := l.inflight.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func needsInteraction(err error) bool {
	return errors.Is(err, domain.ErrInteractionRequired) || errors.Is(err, domain.ErrNoActiveAccount)
}

func (l *Loader) fetchProfile(ctx context.Context, tokens TokenSource) (*domain.ProfileRecord, error) {
	token, err := tokens.AcquireToken(ctx)
	if err != nil {
		l.observe("profile", err)
		return nil, err
	}
	profile, err := l.graph.Me(ctx, token)
	if err != nil {
		l.observe("profile", err)
		l.logger.Warn("fetching profile", zap.Error(err))
		return nil, err
	}
	l.observe("profile", nil)
	return profile, nil
}

func (l *Loader) fetchPhoto(ctx context.Context, tokens TokenSource, photos PhotoStore) (domain.PhotoRef, error) {
	token, err := tokens.AcquireToken(ctx)
	if err != nil {
		l.observe("photo", err)
		return "", err
	}
	p, err := l.graph.Photo(ctx, token)
	if err != nil {
		l.observe("photo", err)
		l.logger.Warn("fetching photo", zap.Error(err))
		return "", err
	}
	if p == nil {
		l.outcome("photo", "no_photo")
		return "", nil
	}
	l.observe("photo", nil)
	return domain.PhotoRef(PhotoPathPrefix + photos.StorePhoto(*p)), nil
}

func (l *Loader) observe(resource string, err error) {
	switch {
	case err == nil:
		l.outcome(resource, "ok")
	case needsInteraction(err):
		l.outcome(resource, "interaction_required")
	default:
		l.outcome(resource, "error")
	}
}

func (l *Loader) outcome(resource, outcome string) {
	if l.observer != nil {
		l.observer.ObserveGraph(resource, outcome)
	}
}
