package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/yurawu27/splittie/internal/auth"
	"github.com/yurawu27/splittie/internal/billing"
	"github.com/yurawu27/splittie/internal/calculator"
	"github.com/yurawu27/splittie/internal/directory"
	"github.com/yurawu27/splittie/internal/middleware"
	"github.com/yurawu27/splittie/internal/money"
	"github.com/yurawu27/splittie/internal/storage/sqlite"
	api "github.com/yurawu27/splittie/pkg/api"
	"github.com/yurawu27/splittie/pkg/api/apiconnect"
)

const testCookie = "splittie_session"

type testClients struct {
	auth  apiconnect.AuthServiceClient
	bills apiconnect.BillServiceClient
}

// setupTestServer wires both services against a temp SQLite database.
func setupTestServer(t *testing.T) *testClients {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret-key-that-is-long-enough!", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store, bcrypt.MinCost)
	cookies := auth.CookieConfig{Name: testCookie, TTL: time.Hour}

	formatter, err := money.NewFormatter("USD")
	if err != nil {
		t.Fatalf("failed to create formatter: %v", err)
	}
	manager := billing.NewManager(store, directory.NewSyncer(store, directory.WithRetry(1, 0)), calculator.Engine{}, nil)

	authPath, authHandler := apiconnect.NewAuthServiceHandler(
		NewAuthService(authenticator, store, jwtManager, cookies, logger),
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager, testCookie)),
	)
	billPath, billHandler := apiconnect.NewBillServiceHandler(
		NewBillService(manager, formatter, logger),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager, testCookie)),
	)

	mux := http.NewServeMux()
	mux.Handle(authPath, authHandler)
	mux.Handle(billPath, billHandler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testClients{
		auth:  apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		bills: apiconnect.NewBillServiceClient(http.DefaultClient, server.URL),
	}
}

// register creates an account and returns its session token.
func (c *testClients) register(t *testing.T, username string) string {
	t.Helper()
	res, err := c.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		Name:     username,
		Phone:    "555-0100",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", username, err)
	}
	return res.Msg.Token
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

func dinner() *api.BillInput {
	return &api.BillInput{
		Title:         "Krusty Krab dinner",
		Subtotal:      "30",
		Tax:           "3",
		Tip:           "6",
		PayerUsername: "mrkrab123",
		Splitters: []api.SplitterInput{
			{Username: "squidward", Items: []api.ItemInput{{Cost: "10"}}},
			{Username: "spongebob", Items: []api.ItemInput{{Cost: "20"}}},
		},
	}
}

func TestAuthService(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	res, err := c.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Username: "mrkrab123",
		Email:    "krab@example.com",
		Password: "password123",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if res.Msg.Token == "" {
		t.Fatal("expected token")
	}
	if cookie := res.Header().Get("Set-Cookie"); !strings.HasPrefix(cookie, testCookie+"=") {
		t.Errorf("expected session cookie, got %q", cookie)
	}

	t.Run("duplicate username", func(t *testing.T) {
		_, err := c.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Username: "mrkrab123",
			Password: "password123",
		}))
		assertCode(t, err, connect.CodeAlreadyExists)

		var cerr *connect.Error
		if !errors.As(err, &cerr) || cerr.Meta().Get(ErrorCodeHeader) != "USERNAME_TAKEN" {
			t.Errorf("expected USERNAME_TAKEN metadata, got %v", err)
		}
	})

	t.Run("short username", func(t *testing.T) {
		_, err := c.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Username: "krab",
			Password: "password123",
		}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("login", func(t *testing.T) {
		res, err := c.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Username: "mrkrab123",
			Password: "password123",
		}))
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if res.Msg.Account.Username != "mrkrab123" {
			t.Errorf("expected mrkrab123, got %s", res.Msg.Account.Username)
		}

		_, err = c.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Username: "mrkrab123",
			Password: "wrongpassword",
		}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("current user", func(t *testing.T) {
		res, err := c.auth.GetCurrentUser(ctx, withToken(&api.GetCurrentUserRequest{}, res.Msg.Token))
		if err != nil {
			t.Fatalf("GetCurrentUser failed: %v", err)
		}
		if res.Msg.Account.Email != "krab@example.com" {
			t.Errorf("expected stored email, got %q", res.Msg.Account.Email)
		}

		_, err = c.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("logout clears cookie", func(t *testing.T) {
		out, err := c.auth.Logout(ctx, withToken(&api.LogoutRequest{}, res.Msg.Token))
		if err != nil {
			t.Fatalf("Logout failed: %v", err)
		}
		if cookie := out.Header().Get("Set-Cookie"); !strings.Contains(cookie, "Max-Age=0") {
			t.Errorf("expected expired cookie, got %q", cookie)
		}
	})
}

func TestBillService_Lifecycle(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	krab := c.register(t, "mrkrab123")
	squid := c.register(t, "squidward")
	c.register(t, "spongebob")

	created, err := c.bills.CreateBill(ctx, withToken(&api.CreateBillRequest{Bill: dinner()}, krab))
	if err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	bill := created.Msg.Bill
	if created.Msg.Warning != "" {
		t.Errorf("unexpected warning: %s", created.Msg.Warning)
	}
	if bill.Total != "39.00" || bill.TotalDisplay != "$39.00" {
		t.Errorf("expected total 39.00 / $39.00, got %s / %s", bill.Total, bill.TotalDisplay)
	}
	if len(bill.Splitters) != 2 {
		t.Fatalf("expected 2 splitters, got %d", len(bill.Splitters))
	}
	if got := bill.Splitters[0].TotalOwed; got != "13.00" {
		t.Errorf("expected squidward to owe 13.00, got %s", got)
	}
	if got := bill.Splitters[1].TotalOwed; got != "26.00" {
		t.Errorf("expected spongebob to owe 26.00, got %s", got)
	}
	if got := bill.Splitters[0].Items[0].Name; got != "Item" {
		t.Errorf("expected default item name, got %q", got)
	}

	t.Run("splitter sees bill", func(t *testing.T) {
		list, err := c.bills.ListBills(ctx, withToken(&api.ListBillsRequest{}, squid))
		if err != nil {
			t.Fatalf("ListBills failed: %v", err)
		}
		if len(list.Msg.Bills) != 1 || list.Msg.Bills[0].Id != bill.Id {
			t.Errorf("expected squidward to see the bill, got %d bills", len(list.Msg.Bills))
		}
	})

	t.Run("balances", func(t *testing.T) {
		res, err := c.bills.GetBalances(ctx, withToken(&api.GetBalancesRequest{}, krab))
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		if len(res.Msg.Debts) != 2 {
			t.Errorf("expected 2 debts, got %d", len(res.Msg.Debts))
		}
		for _, d := range res.Msg.Debts {
			if d.ToUsername != "mrkrab123" {
				t.Errorf("expected debts owed to mrkrab123, got %s", d.ToUsername)
			}
		}
	})

	t.Run("stale update rejected", func(t *testing.T) {
		_, err := c.bills.UpdateBill(ctx, withToken(&api.UpdateBillRequest{
			BillId:          bill.Id,
			Bill:            dinner(),
			ExpectedVersion: bill.Version + 5,
		}, krab))
		assertCode(t, err, connect.CodeAborted)
	})

	t.Run("update", func(t *testing.T) {
		in := dinner()
		in.Title = "Krusty Krab lunch"
		in.Splitters = in.Splitters[:1]
		in.Subtotal = "10"
		res, err := c.bills.UpdateBill(ctx, withToken(&api.UpdateBillRequest{
			BillId:          bill.Id,
			Bill:            in,
			ExpectedVersion: bill.Version,
		}, squid))
		if err != nil {
			t.Fatalf("UpdateBill failed: %v", err)
		}
		if res.Msg.Bill.Title != "Krusty Krab lunch" || res.Msg.Bill.Version != bill.Version+1 {
			t.Errorf("unexpected updated bill: %+v", res.Msg.Bill)
		}
	})

	t.Run("dropped splitter loses access", func(t *testing.T) {
		sponge, err := c.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Username: "spongebob",
			Password: "password123",
		}))
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		_, err = c.bills.GetBill(ctx, withToken(&api.GetBillRequest{BillId: bill.Id}, sponge.Msg.Token))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("delete", func(t *testing.T) {
		res, err := c.bills.DeleteBill(ctx, withToken(&api.DeleteBillRequest{BillId: bill.Id}, krab))
		if err != nil {
			t.Fatalf("DeleteBill failed: %v", err)
		}
		if res.Msg.AlreadyGone {
			t.Error("expected first delete to remove the bill")
		}

		again, err := c.bills.DeleteBill(ctx, withToken(&api.DeleteBillRequest{BillId: bill.Id}, krab))
		if err != nil {
			t.Fatalf("second DeleteBill failed: %v", err)
		}
		if !again.Msg.AlreadyGone {
			t.Error("expected AlreadyGone on second delete")
		}

		_, err = c.bills.GetBill(ctx, withToken(&api.GetBillRequest{BillId: bill.Id}, krab))
		assertCode(t, err, connect.CodeNotFound)
	})
}

func TestBillService_Validation(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	krab := c.register(t, "mrkrab123")
	c.register(t, "squidward")
	c.register(t, "spongebob")

	tests := []struct {
		name   string
		modify func(*api.BillInput)
		code   connect.Code
		meta   string
	}{
		{"invalid subtotal", func(b *api.BillInput) { b.Subtotal = "abc" }, connect.CodeInvalidArgument, "INVALID_SUBTOTAL"},
		{"missing title", func(b *api.BillInput) { b.Title = "  " }, connect.CodeInvalidArgument, "MISSING_TITLE"},
		{"unknown payer", func(b *api.BillInput) { b.PayerUsername = "planktonn" }, connect.CodeNotFound, "PAYER_NOT_FOUND"},
		{"unknown splitter", func(b *api.BillInput) { b.Splitters[0].Username = "planktonn" }, connect.CodeNotFound, "SPLITTER_NOT_FOUND"},
		{"zero subtotal", func(b *api.BillInput) { b.Subtotal = "0" }, connect.CodeInvalidArgument, "ZERO_SUBTOTAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := dinner()
			tt.modify(in)
			_, err := c.bills.CreateBill(ctx, withToken(&api.CreateBillRequest{Bill: in}, krab))
			assertCode(t, err, tt.code)

			var cerr *connect.Error
			if errors.As(err, &cerr) && cerr.Meta().Get(ErrorCodeHeader) != tt.meta {
				t.Errorf("expected %s, got %s", tt.meta, cerr.Meta().Get(ErrorCodeHeader))
			}
		})
	}

	t.Run("no bills written", func(t *testing.T) {
		list, err := c.bills.ListBills(ctx, withToken(&api.ListBillsRequest{}, krab))
		if err != nil {
			t.Fatalf("ListBills failed: %v", err)
		}
		if len(list.Msg.Bills) != 0 {
			t.Errorf("expected no bills after failed creates, got %d", len(list.Msg.Bills))
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := c.bills.ListBills(ctx, connect.NewRequest(&api.ListBillsRequest{}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})
}
