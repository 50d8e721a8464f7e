package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurawu27/splittie/internal/auth"
	"github.com/yurawu27/splittie/internal/metrics"
	"github.com/yurawu27/splittie/internal/models"
)

const cookieName = "splittie_session"

func testToken(t *testing.T, jwtManager *auth.JWTManager) string {
	t.Helper()
	token, err := jwtManager.Generate(&models.Account{ID: "acc-1", Username: "mrkrab123"})
	require.NoError(t, err)
	return token
}

func TestTokenFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  http.Header
		want    string
		wantErr error
	}{
		{"bearer", http.Header{"Authorization": {"Bearer abc"}}, "abc", nil},
		{"malformed bearer", http.Header{"Authorization": {"Token abc"}}, "", auth.ErrInvalidToken},
		{"cookie", http.Header{"Cookie": {"other=1; splittie_session=xyz"}}, "xyz", nil},
		{"bearer wins over cookie", http.Header{"Authorization": {"Bearer abc"}, "Cookie": {"splittie_session=xyz"}}, "abc", nil},
		{"nothing", http.Header{}, "", auth.ErrMissingToken},
		{"empty cookie", http.Header{"Cookie": {"splittie_session="}}, "", auth.ErrMissingToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TokenFromHeader(tt.header, cookieName)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequireSession(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key-that-is-long-enough", time.Hour)
	handler := RequireSession(jwtManager, cookieName)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetAccountID(r.Context()) + "/" + GetUsername(r.Context())))
	}))

	t.Run("no session redirects to login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bills", nil))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("invalid cookie redirects to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/bills", nil)
		req.AddCookie(&http.Cookie{Name: cookieName, Value: "forged"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusFound, rec.Code)
	})

	t.Run("valid cookie passes identity through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/bills", nil)
		req.AddCookie(&http.Cookie{Name: cookieName, Value: testToken(t, jwtManager)})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "acc-1/mrkrab123", rec.Body.String())
	})
}

func TestLoggingRecordsRoutePattern(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bills/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := Logging(m)(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bills/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET /bills/{id}", "404")))
}

func TestCORSPreflight(t *testing.T) {
	called := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/splittie.v1.BillService/ListBills", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}

func TestWithIdentity(t *testing.T) {
	ctx := WithIdentity(context.Background(), &auth.Claims{AccountID: "a", Username: "u"})
	assert.Equal(t, "a", GetAccountID(ctx))
	assert.Equal(t, "u", GetUsername(ctx))
	assert.Empty(t, GetAccountID(context.Background()))
}
