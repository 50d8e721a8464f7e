package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yurawu27/splittie/internal/models"
	"github.com/yurawu27/splittie/internal/storage"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustAccount(t *testing.T, store *SQLiteStore, username string) *models.Account {
	t.Helper()
	account := models.NewAccount(username, "hash", username+"@example.com", username, "555")
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("CreateAccount(%s) failed: %v", username, err)
	}
	return account
}

func sampleBill(payer, splitter *models.Account) *models.Bill {
	return &models.Bill{
		Title:    "Test Dinner",
		Subtotal: d("40"),
		Tax:      d("3.2"),
		Tip:      d("0"),
		Total:    d("43.2"),
		PayerID:  payer.ID,
		Splitters: []models.Splitter{
			{
				AccountID: splitter.ID,
				Username:  splitter.Username,
				Items: []models.Item{
					{Name: "krabby patty", Cost: d("15")},
					{Name: "kelp shake", Cost: d("5")},
				},
				ItemsCost: d("20"),
				TaxShare:  d("1.60"),
				TipShare:  d("0"),
				TotalOwed: d("21.60"),
			},
			{
				AccountID: payer.ID,
				Username:  payer.Username,
				Items:     []models.Item{{Name: "Item", Cost: d("20")}},
				ItemsCost: d("20"),
				TaxShare:  d("1.60"),
				TipShare:  d("0"),
				TotalOwed: d("21.60"),
				Paid:      true,
			},
		},
	}
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	krab := mustAccount(t, store, "mrkrab123")
	squid := mustAccount(t, store, "squidward")

	t.Run("CreateBill generates ID and version", func(t *testing.T) {
		bill := sampleBill(krab, squid)
		if err := store.CreateBill(ctx, bill); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		if bill.ID == "" {
			t.Error("Expected bill ID to be generated")
		}
		if bill.CreatedAt == 0 || bill.UpdatedAt != bill.CreatedAt {
			t.Errorf("Expected CreatedAt = UpdatedAt to be set, got %d/%d", bill.CreatedAt, bill.UpdatedAt)
		}
		if bill.Version != 1 {
			t.Errorf("Expected version 1, got %d", bill.Version)
		}
	})

	t.Run("GetBill retrieves complete bill", func(t *testing.T) {
		original := sampleBill(krab, squid)
		original.Complete = true
		if err := store.CreateBill(ctx, original); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		retrieved, err := store.GetBill(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}

		if retrieved.Title != original.Title {
			t.Errorf("Title mismatch: got %s, want %s", retrieved.Title, original.Title)
		}
		if !retrieved.Total.Equal(original.Total) || !retrieved.Tax.Equal(original.Tax) {
			t.Errorf("Totals mismatch: got %s/%s, want %s/%s", retrieved.Total, retrieved.Tax, original.Total, original.Tax)
		}
		if retrieved.PayerUsername != "mrkrab123" {
			t.Errorf("PayerUsername = %q, want mrkrab123", retrieved.PayerUsername)
		}
		if !retrieved.Complete {
			t.Error("Expected complete flag to round-trip")
		}
		if len(retrieved.Splitters) != 2 {
			t.Fatalf("Splitters count mismatch: got %d, want 2", len(retrieved.Splitters))
		}

		first := retrieved.Splitters[0]
		if first.Username != "squidward" || len(first.Items) != 2 {
			t.Errorf("first splitter = %s with %d items, want squidward with 2", first.Username, len(first.Items))
		}
		if first.Items[0].Name != "krabby patty" || !first.Items[1].Cost.Equal(d("5")) {
			t.Errorf("items out of order: %+v", first.Items)
		}
		if !first.TotalOwed.Equal(d("21.6")) {
			t.Errorf("TotalOwed = %s, want 21.60", first.TotalOwed)
		}
		if !retrieved.Splitters[1].Paid {
			t.Error("Expected second splitter paid flag to round-trip")
		}
	})

	t.Run("GetBill returns ErrNotFound for nonexistent bill", func(t *testing.T) {
		_, err := store.GetBill(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateBill replaces splitters and bumps version", func(t *testing.T) {
		bill := sampleBill(krab, squid)
		if err := store.CreateBill(ctx, bill); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}
		createdAt := bill.CreatedAt

		bill.Title = "Updated Bill"
		bill.Subtotal, bill.Tax, bill.Tip, bill.Total = d("60"), d("6"), d("3"), d("69")
		bill.Splitters = []models.Splitter{{
			AccountID: squid.ID,
			Username:  squid.Username,
			Items:     []models.Item{{Name: "Updated Item", Cost: d("60")}},
			ItemsCost: d("60"), TaxShare: d("6"), TipShare: d("3"), TotalOwed: d("69"),
		}}

		if err := store.UpdateBill(ctx, bill, 1); err != nil {
			t.Fatalf("UpdateBill failed: %v", err)
		}
		if bill.Version != 2 || bill.CreatedAt != createdAt {
			t.Errorf("after update version=%d createdAt=%d, want 2/%d", bill.Version, bill.CreatedAt, createdAt)
		}

		retrieved, err := store.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if retrieved.Title != "Updated Bill" || !retrieved.Total.Equal(d("69")) {
			t.Errorf("update not applied: %s %s", retrieved.Title, retrieved.Total)
		}
		if len(retrieved.Splitters) != 1 || len(retrieved.Splitters[0].Items) != 1 {
			t.Errorf("expected the splitter set to be replaced, got %+v", retrieved.Splitters)
		}

		// Stale version is rejected and leaves the bill untouched
		bill.Title = "Stale"
		err = store.UpdateBill(ctx, bill, 1)
		if !errors.Is(err, storage.ErrStale) {
			t.Errorf("Expected ErrStale, got %v", err)
		}
		retrieved, _ = store.GetBill(ctx, bill.ID)
		if retrieved.Title != "Updated Bill" {
			t.Errorf("stale update was applied: %s", retrieved.Title)
		}

		// Version 0 means last write wins
		if err := store.UpdateBill(ctx, bill, 0); err != nil {
			t.Errorf("unversioned UpdateBill failed: %v", err)
		}
	})

	t.Run("UpdateBill returns ErrNotFound for nonexistent bill", func(t *testing.T) {
		err := store.UpdateBill(ctx, &models.Bill{ID: "missing", PayerID: krab.ID}, 0)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteBill removes bill", func(t *testing.T) {
		bill := sampleBill(krab, squid)
		if err := store.CreateBill(ctx, bill); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}
		if err := store.DeleteBill(ctx, bill.ID); err != nil {
			t.Fatalf("DeleteBill failed: %v", err)
		}
		if _, err := store.GetBill(ctx, bill.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected deleted bill to be gone, got %v", err)
		}
		if err := store.DeleteBill(ctx, bill.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected second delete to return ErrNotFound, got %v", err)
		}
	})
}

func TestAccounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	krab := mustAccount(t, store, "mrkrab123")
	mustAccount(t, store, "squidward")

	t.Run("duplicate username is rejected", func(t *testing.T) {
		dup := models.NewAccount("mrkrab123", "hash", "other@example.com", "Other", "1")
		if err := store.CreateAccount(ctx, dup); !errors.Is(err, storage.ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("usernames are case-sensitive", func(t *testing.T) {
		if _, err := store.GetAccountByUsername(ctx, "MRKRAB123"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for different case, got %v", err)
		}
		mustAccount(t, store, "MrKrab123")
	})

	t.Run("lookup by username and ID", func(t *testing.T) {
		byName, err := store.GetAccountByUsername(ctx, "mrkrab123")
		if err != nil {
			t.Fatalf("GetAccountByUsername failed: %v", err)
		}
		byID, err := store.GetAccountByID(ctx, krab.ID)
		if err != nil {
			t.Fatalf("GetAccountByID failed: %v", err)
		}
		if byName.ID != krab.ID || byID.Username != "mrkrab123" || byID.Email != "mrkrab123@example.com" {
			t.Errorf("lookup mismatch: %+v / %+v", byName, byID)
		}
	})

	t.Run("GetAccountsByUsernames omits unknown names", func(t *testing.T) {
		got, err := store.GetAccountsByUsernames(ctx, []string{"mrkrab123", "squidward", "plankton"})
		if err != nil {
			t.Fatalf("GetAccountsByUsernames failed: %v", err)
		}
		if len(got) != 2 || got["squidward"] == nil || got["plankton"] != nil {
			t.Errorf("unexpected result: %v", got)
		}
	})

	t.Run("attach and detach are idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if err := store.AttachBill(ctx, krab.ID, "bill-1"); err != nil {
				t.Fatalf("AttachBill failed: %v", err)
			}
		}
		if err := store.AttachBill(ctx, krab.ID, "bill-2"); err != nil {
			t.Fatalf("AttachBill failed: %v", err)
		}

		account, _ := store.GetAccountByID(ctx, krab.ID)
		if len(account.Bills) != 2 || account.Bills[0] != "bill-1" {
			t.Errorf("Bills = %v, want [bill-1 bill-2]", account.Bills)
		}

		for i := 0; i < 2; i++ {
			if err := store.DetachBill(ctx, krab.ID, "bill-1"); err != nil {
				t.Fatalf("DetachBill failed: %v", err)
			}
		}
		account, _ = store.GetAccountByID(ctx, krab.ID)
		if len(account.Bills) != 1 || account.Bills[0] != "bill-2" {
			t.Errorf("Bills = %v, want [bill-2]", account.Bills)
		}
	})

	t.Run("attach to unknown account returns ErrNotFound", func(t *testing.T) {
		if err := store.AttachBill(ctx, "ghost", "bill-1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListAccounts is ordered by username", func(t *testing.T) {
		accounts, err := store.ListAccounts(ctx)
		if err != nil {
			t.Fatalf("ListAccounts failed: %v", err)
		}
		if len(accounts) != 3 {
			t.Fatalf("expected 3 accounts, got %d", len(accounts))
		}
		for i := 1; i < len(accounts); i++ {
			if accounts[i-1].Username > accounts[i].Username {
				t.Errorf("accounts out of order: %s before %s", accounts[i-1].Username, accounts[i].Username)
			}
		}
	})
}

func TestListBillsForAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	krab := mustAccount(t, store, "mrkrab123")
	squid := mustAccount(t, store, "squidward")
	sponge := mustAccount(t, store, "spongebob")

	asPayer := sampleBill(krab, squid)
	if err := store.CreateBill(ctx, asPayer); err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	asSplitter := sampleBill(sponge, squid)
	asSplitter.Splitters = asSplitter.Splitters[:1]
	asSplitter.Splitters[0].AccountID = krab.ID
	asSplitter.Splitters[0].Username = krab.Username
	asSplitter.CreatedAt = asPayer.CreatedAt + 10
	if err := store.CreateBill(ctx, asSplitter); err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	unrelated := sampleBill(sponge, squid)
	unrelated.Splitters = unrelated.Splitters[:1]
	if err := store.CreateBill(ctx, unrelated); err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}

	bills, err := store.ListBillsForAccount(ctx, krab.ID)
	if err != nil {
		t.Fatalf("ListBillsForAccount failed: %v", err)
	}
	if len(bills) != 2 {
		t.Fatalf("expected 2 bills, got %d", len(bills))
	}
	if bills[0].ID != asSplitter.ID || bills[1].ID != asPayer.ID {
		t.Errorf("expected newest first: got %s, %s", bills[0].ID, bills[1].ID)
	}

	ids, err := store.ListBillIDsForAccount(ctx, squid.ID)
	if err != nil {
		t.Fatalf("ListBillIDsForAccount failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("squidward should be on 2 bills, got %d", len(ids))
	}
}

func TestNew_CreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "bills.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Errorf("expected parent directory to exist: %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}
	for _, tt := range tests {
		if got := placeholders(tt.n); got != tt.want {
			t.Errorf("placeholders(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
