package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	msal "github.com/AzureAD/microsoft-authentication-library-for-go/apps/errors"

	"github.com/BlackMission/graphprofile/internal/domain"
)

// aadErrorResponse is an error response from Entra ID.
//
// See https://www.rfc-editor.org/rfc/rfc6749#section-5.2 for the OAuth 2.0 shape and
// https://learn.microsoft.com/en-us/entra/identity-platform/reference-error-codes for codes.
type aadErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCodes       []int  `json:"error_codes"`
	CorrelationID    string `json:"correlation_id"`
}

// OAuth error codes that can only be resolved by sending the user to the login page.
var interactionCodes = []string{
	"interaction_required",
	"invalid_grant",
	"login_required",
	"consent_required",
}

// classify maps a silent acquisition failure onto domain.ErrInteractionRequired when
// the user has to sign in again. Transport and context failures pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var callErr msal.CallErr
	if errors.As(err, &callErr) {
		if code := interactionCode(callErr); code != "" {
			return fmt.Errorf("%w: %s: %w", domain.ErrInteractionRequired, code, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return err
	}

	// No token endpoint was contacted, so the cache had nothing usable for the account.
	return fmt.Errorf("%w: %w", domain.ErrInteractionRequired, err)
}

func interactionCode(callErr msal.CallErr) string {
	if parsed := parseAADError(callErr.Resp); parsed != nil {
		for _, code := range interactionCodes {
			if parsed.Error == code {
				return code
			}
		}
		return ""
	}
	if callErr.Err == nil {
		return ""
	}
	msg := callErr.Err.Error()
	for _, code := range interactionCodes {
		if strings.Contains(msg, code) {
			return code
		}
	}
	return ""
}

func parseAADError(resp *http.Response) *aadErrorResponse {
	if resp == nil || resp.Body == nil {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	// leave the body readable for anyone else inspecting the error
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return nil
	}

	var parsed aadErrorResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error == "" {
		return nil
	}
	return &parsed
}
