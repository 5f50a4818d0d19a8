package auth

import (
	"errors"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	"go.uber.org/zap"

	"github.com/BlackMission/graphprofile/internal/domain"
)

// EventType names something that happened on a Client.
type EventType string

const (
	EventLoginSuccess        EventType = "login_success"
	EventLoginFailure        EventType = "login_failure"
	EventAcquireTokenSuccess EventType = "acquire_token_success"
	EventAcquireTokenFailure EventType = "acquire_token_failure"
	EventLogoutSuccess       EventType = "logout_success"
)

// Event is delivered to every registered EventCallback.
// Account is set for login, token and logout events; Err for failures.
type Event struct {
	Type    EventType
	Account *public.Account
	Err     error
}

// EventCallback receives client events synchronously, in registration order.
type EventCallback func(Event)

// TokenObserver counts token acquisitions.
type TokenObserver interface {
	ObserveToken(mode, outcome string)
}

// ObserveEvents reports login and token events to obs.
func ObserveEvents(obs TokenObserver) EventCallback {
	return func(ev Event) {
		switch ev.Type {
		case EventLoginSuccess:
			obs.ObserveToken("auth_code", "ok")
		case EventLoginFailure:
			obs.ObserveToken("auth_code", "error")
		case EventAcquireTokenSuccess:
			obs.ObserveToken("silent", "ok")
		case EventAcquireTokenFailure:
			if errors.Is(ev.Err, domain.ErrInteractionRequired) {
				obs.ObserveToken("silent", "interaction_required")
				return
			}
			obs.ObserveToken("silent", "error")
		}
	}
}

// LogEvents writes every event to logger.
func LogEvents(logger *zap.Logger) EventCallback {
	return func(ev Event) {
		fields := []zap.Field{zap.String("event", string(ev.Type))}
		if ev.Account != nil {
			fields = append(fields, zap.String("home_account_id", ev.Account.HomeAccountID))
		}
		if ev.Err != nil {
			logger.Warn("auth event", append(fields, zap.Error(ev.Err))...)
			return
		}
		logger.Info("auth event", fields...)
	}
}
