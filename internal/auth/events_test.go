package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BlackMission/graphprofile/internal/domain"
)

type recordingObserver struct {
	seen []string
}

func (r *recordingObserver) ObserveToken(mode, outcome string) {
	r.seen = append(r.seen, mode+"/"+outcome)
}

func TestObserveEvents(t *testing.T) {
	obs := &recordingObserver{}
	cb := ObserveEvents(obs)

	cb(Event{Type: EventLoginSuccess})
	cb(Event{Type: EventLoginFailure, Err: domain.ErrLoginFailed})
	cb(Event{Type: EventAcquireTokenSuccess})
	cb(Event{Type: EventAcquireTokenFailure, Err: fmt.Errorf("%w: no token", domain.ErrInteractionRequired)})
	cb(Event{Type: EventAcquireTokenFailure, Err: errors.New("dial tcp: timeout")})
	cb(Event{Type: EventLogoutSuccess})

	require.Equal(t, []string{
		"auth_code/ok",
		"auth_code/error",
		"silent/ok",
		"silent/interaction_required",
		"silent/error",
	}, obs.seen)
}

func TestLogEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cb := LogEvents(zap.New(core))

	cb(Event{Type: EventLoginSuccess, Account: &public.Account{HomeAccountID: "u1"}})
	cb(Event{Type: EventAcquireTokenFailure, Err: domain.ErrInteractionRequired})

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, zap.InfoLevel, entries[0].Level)
	require.Equal(t, "u1", entries[0].ContextMap()["home_account_id"])
	require.Equal(t, zap.WarnLevel, entries[1].Level)
	require.Equal(t, "acquire_token_failure", entries[1].ContextMap()["event"])
}

func TestBootstrap_InstallsFactoryCallbacks(t *testing.T) {
	obs := &recordingObserver{}
	fake := &fakePublicClient{
		accounts:     []public.Account{{HomeAccountID: "u1"}},
		silentResult: public.AuthResult{AccessToken: "tok"},
	}
	c := bootstrapWith(t, fake, ObserveEvents(obs))

	_, err := c.AcquireToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"silent/ok"}, obs.seen)
}
