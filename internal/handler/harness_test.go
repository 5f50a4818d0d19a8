package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
	"go.uber.org/zap"

	"github.com/BlackMission/graphprofile/internal/auth"
	"github.com/BlackMission/graphprofile/internal/cookie"
	"github.com/BlackMission/graphprofile/internal/graph"
	"github.com/BlackMission/graphprofile/internal/session"
	"github.com/BlackMission/graphprofile/internal/state"
	"github.com/BlackMission/graphprofile/internal/view"
	"github.com/BlackMission/graphprofile/pkg/testutil"
)

var _ auth.PublicClient = (*testutil.FakeMSAL)(nil)

var photoBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

const testToken = "graph-token"

// fakeGraph serves /me/ and /me/photo/$value the way Microsoft Graph does.
type fakeGraph struct {
	noPhoto bool
}

func (g *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+testToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch r.URL.Path {
	case "/me/":
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"displayName":"Adele Vance","mail":"adele@contoso.com","id":"u1"}`))
	case "/me/photo/$value":
		if g.noPhoto {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(photoBytes)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type harness struct {
	msal     *testutil.FakeMSAL
	sessions *session.Store
	state    *state.Service
	handler  http.Handler
}

func newHarness(t *testing.T, msal *testutil.FakeMSAL, g *fakeGraph) *harness {
	t.Helper()

	graphSrv := httptest.NewServer(g)
	t.Cleanup(graphSrv.Close)

	codec, err := cookie.NewCodec([]byte("01234567890123456789012345678901"), time.Hour, false)
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	factory := auth.NewFactory(auth.Config{}, zap.NewNop())
	factory.SetBuilder(func(auth.Config, auth.CacheStore) (auth.PublicClient, error) { return msal, nil })

	d := Deps{
		Sessions: session.NewStore(time.Hour, zap.NewNop()),
		Cookies:  codec,
		State:    state.NewService([]byte("test-state-key-1234567890abcdef")),
		Auth:     factory,
		Loader:   view.NewLoader(graph.New(graph.Config{BaseURL: graphSrv.URL}), zap.NewNop(), nil),
		Logger:   zap.NewNop(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", Home(d))
	mux.HandleFunc("GET /login", Login(d))
	mux.HandleFunc("POST /logout", Logout(d))
	mux.HandleFunc("GET /photo/{ref}", Photo(d))
	mux.HandleFunc("GET /api/me", APIMe(d))
	mux.Handle("GET /static/", Static())

	return &harness{msal: msal, sessions: d.Sessions, state: d.State, handler: mux}
}

func (h *harness) do(t *testing.T, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoRequestWithCookies(t, h.handler, method, path, nil, cookies)
}

func signedIn() *testutil.FakeMSAL {
	return &testutil.FakeMSAL{
		CachedAccounts: []public.Account{{HomeAccountID: "u1", PreferredUsername: "adele@contoso.com"}},
		SilentResult:   public.AuthResult{AccessToken: testToken},
		AuthURL:        "https://login.example.com/authorize?client_id=app",
	}
}

func signedOut() *testutil.FakeMSAL {
	return &testutil.FakeMSAL{
		AuthURL:      "https://login.example.com/authorize?client_id=app",
		SilentResult: public.AuthResult{AccessToken: testToken},
		CodeResult: public.AuthResult{
			AccessToken: testToken,
			Account:     public.Account{HomeAccountID: "u1", PreferredUsername: "adele@contoso.com"},
		},
	}
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	c := testutil.FindCookie(rr, cookie.Name)
	if c == nil {
		t.Fatal("expected session cookie to be set")
	}
	return c
}
