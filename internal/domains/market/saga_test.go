package market

import (
	"testing"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/token"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/metrics"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/runtime"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/storage"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// End-to-end: both components on one runtime, wired the way the node
// composition wires them.
func newSagaFixture(t *testing.T) (*Service, *token.Service, *runtime.Runtime) {
	t.Helper()
	rt := runtime.New(quietLogger())

	saleStore := storage.NewSaleStore()
	mkt := NewService("market.near", saleStore, saleStore, rt, rt, metrics.NewSettlement(), quietLogger())
	rt.Register("market.near", MethodOnApprove, mkt.HandleOnApprove)
	rt.Register("market.near", MethodFTOnTransfer, mkt.HandleFTOnTransfer)

	nft := token.NewService("nft.near", storage.NewTokenStore(), rt, rt, rt, metrics.NewSettlement(), quietLogger())
	rt.Register("nft.near", token.MethodTransferPayout, nft.HandleTransferPayout)

	return mkt, nft, rt
}

func mintListed(t *testing.T, mkt *Service, nft *token.Service, rt *runtime.Runtime, id models.TokenID, price string) {
	t.Helper()
	meta := models.TokenMetadata{Title: string(id)}
	royalty := map[models.AccountID]uint32{"artist.near": 500}
	if err := nft.Mint("alice.near", id, meta, "alice.near", royalty, models.Pow10(24)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := mkt.StorageDeposit("alice.near", "", saleStorageCost); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	msg := `{"sale_conditions":{"is_native":true,"amount":"` + price + `"}}`
	if err := nft.Approve("alice.near", id, "market.near", msg, models.Pow10(21)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	rt.Drain()
	if _, ok := mkt.GetSale("nft.near", id); !ok {
		t.Fatal("approval notification did not produce a listing")
	}
}

func TestPurchaseSagaEndToEnd(t *testing.T) {
	mkt, nft, rt := newSagaFixture(t)
	mintListed(t, mkt, nft, rt, "t1", "1000")

	before := rt.NativeBalanceOf("alice.near")
	if err := mkt.Offer("bob.near", "nft.near", "t1", models.NewAmount(1000)); err != nil {
		t.Fatalf("offer: %v", err)
	}
	rt.Drain()

	view, ok := nft.Token("t1")
	if !ok || view.OwnerID != "bob.near" {
		t.Fatalf("buyer must own the token, view %+v", view)
	}
	if _, ok := mkt.GetSale("nft.near", "t1"); ok {
		t.Fatal("sale must be gone after purchase")
	}
	if !rt.NativeBalanceOf("artist.near").Equal(models.NewAmount(50)) {
		t.Fatalf("artist royalty %s, want 50", rt.NativeBalanceOf("artist.near"))
	}
	gained, ok := rt.NativeBalanceOf("alice.near").Sub(before)
	if !ok || gained.Cmp(models.NewAmount(950)) < 0 {
		t.Fatalf("seller gained %s, want at least 950", gained)
	}
	if !rt.NativeBalanceOf("bob.near").IsZero() {
		t.Fatalf("buyer must not be refunded, got %s", rt.NativeBalanceOf("bob.near"))
	}
}

// A listing authorized by an approval that the owner has since replaced
// settles as a refund: the settlement call fails on the stale sequence
// number, the buyer gets the price back, and the token never moves.
func TestPurchaseSagaStaleApprovalRefunds(t *testing.T) {
	mkt, nft, rt := newSagaFixture(t)
	mintListed(t, mkt, nft, rt, "t1", "1000")

	// Owner re-approves the market without relisting; the listed sequence
	// number is now stale.
	if err := nft.Approve("alice.near", "t1", "market.near", "", models.Pow10(21)); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	rt.Drain()

	if err := mkt.Offer("bob.near", "nft.near", "t1", models.NewAmount(1000)); err != nil {
		t.Fatalf("offer: %v", err)
	}
	rt.Drain()

	view, _ := nft.Token("t1")
	if view.OwnerID != "alice.near" {
		t.Fatalf("token must stay with the seller, owner %s", view.OwnerID)
	}
	if !rt.NativeBalanceOf("bob.near").Equal(models.NewAmount(1000)) {
		t.Fatalf("buyer refund %s, want full price", rt.NativeBalanceOf("bob.near"))
	}
	if _, ok := mkt.GetSale("nft.near", "t1"); ok {
		t.Fatal("sale stays removed even when settlement fails")
	}
}

// Two buyers race for the same listing. The first removal wins; the loser
// is refunded without a second settlement dispatch.
func TestPurchaseSagaConcurrentOffers(t *testing.T) {
	mkt, nft, rt := newSagaFixture(t)
	mintListed(t, mkt, nft, rt, "t1", "1000")

	if err := mkt.Offer("bob.near", "nft.near", "t1", models.NewAmount(1000)); err != nil {
		t.Fatalf("first offer: %v", err)
	}
	// The sale is already removed, so the second offer fails fast.
	if err := mkt.Offer("carol.near", "nft.near", "t1", models.NewAmount(1000)); err == nil {
		t.Fatal("expected second offer to fail once the sale is gone")
	}
	rt.Drain()

	view, _ := nft.Token("t1")
	if view.OwnerID != "bob.near" {
		t.Fatalf("first buyer must win, owner %s", view.OwnerID)
	}
}

func TestPurchaseSagaOverbidIsSplitInFull(t *testing.T) {
	mkt, nft, rt := newSagaFixture(t)
	mintListed(t, mkt, nft, rt, "t1", "1000")

	before := rt.NativeBalanceOf("alice.near")
	// The bid above the asking price is what gets split.
	if err := mkt.Offer("bob.near", "nft.near", "t1", models.NewAmount(2000)); err != nil {
		t.Fatalf("offer: %v", err)
	}
	rt.Drain()

	if !rt.NativeBalanceOf("artist.near").Equal(models.NewAmount(100)) {
		t.Fatalf("artist royalty %s, want 100 of the bid", rt.NativeBalanceOf("artist.near"))
	}
	gained, _ := rt.NativeBalanceOf("alice.near").Sub(before)
	if gained.Cmp(models.NewAmount(1900)) < 0 {
		t.Fatalf("seller gained %s, want at least 1900", gained)
	}
}
