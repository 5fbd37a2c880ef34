package market

import (
	"errors"
	"testing"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

func depositFor(svc *Service, account models.AccountID, listings uint64) {
	_ = svc.StorageDeposit(account, "", saleStorageCost.MulUint64(listings))
}

func approvalFor(owner models.AccountID, token models.TokenID, price string) ApprovalArgs {
	return ApprovalArgs{
		TokenID:     token,
		OwnerID:     owner,
		ApprovalSeq: 1,
		Msg:         `{"sale_conditions":{"is_native":true,"amount":"` + price + `"}}`,
	}
}

func TestListAdmitsFundedSeller(t *testing.T) {
	svc, _, store := newMarketFixture(t)
	depositFor(svc, "alice.near", 1)

	if err := svc.List("nft.near", approvalFor("alice.near", "t1", "1000")); err != nil {
		t.Fatalf("list: %v", err)
	}

	sale, ok := svc.GetSale("nft.near", "t1")
	if !ok || sale.SellerID != "alice.near" || sale.ApprovalSeq != 1 {
		t.Fatalf("unexpected sale: %+v ok=%v", sale, ok)
	}
	if !sale.Conditions.IsNative || !sale.Conditions.Amount.Equal(models.NewAmount(1000)) {
		t.Fatalf("unexpected conditions: %+v", sale.Conditions)
	}
	if store.SellerSaleCount("alice.near") != 1 || store.ContractTokenCount("nft.near") != 1 {
		t.Fatal("sale missing from secondary indices")
	}
}

func TestListRejectsUnderfundedSeller(t *testing.T) {
	svc, _, store := newMarketFixture(t)
	depositFor(svc, "alice.near", 1)

	if err := svc.List("nft.near", approvalFor("alice.near", "t1", "1000")); err != nil {
		t.Fatalf("first list: %v", err)
	}
	// The deposit covers one listing; a second needs more.
	err := svc.List("nft.near", approvalFor("alice.near", "t2", "1000"))
	if !errors.Is(err, contracts.ErrInsufficientDeposit) {
		t.Fatalf("expected ErrInsufficientDeposit, got %v", err)
	}
	if store.SaleCount() != 1 {
		t.Fatal("rejected listing must not be admitted")
	}
}

func TestListRejectsMalformedConditions(t *testing.T) {
	svc, _, _ := newMarketFixture(t)
	depositFor(svc, "alice.near", 1)

	args := approvalFor("alice.near", "t1", "1000")
	args.Msg = `not json`
	if err := svc.List("nft.near", args); err == nil {
		t.Fatal("expected malformed conditions to be rejected")
	}
	if err := svc.List("nft.near", approvalFor("alice.near", "t1", "0")); err == nil {
		t.Fatal("expected zero price to be rejected")
	}
}

func TestRelistRefreshesApprovalSeq(t *testing.T) {
	svc, _, store := newMarketFixture(t)
	depositFor(svc, "alice.near", 1)

	if err := svc.List("nft.near", approvalFor("alice.near", "t1", "1000")); err != nil {
		t.Fatalf("list: %v", err)
	}
	again := approvalFor("alice.near", "t1", "2000")
	again.ApprovalSeq = 5
	if err := svc.List("nft.near", again); err != nil {
		t.Fatalf("relist: %v", err)
	}

	sale, _ := svc.GetSale("nft.near", "t1")
	if sale.ApprovalSeq != 5 || !sale.Conditions.Amount.Equal(models.NewAmount(2000)) {
		t.Fatalf("relist must replace the sale, got %+v", sale)
	}
	if store.SaleCount() != 1 || store.SellerSaleCount("alice.near") != 1 {
		t.Fatal("relist must not duplicate index entries")
	}
}

func TestUpdatePriceSellerOnly(t *testing.T) {
	svc, _, _ := newMarketFixture(t)
	listSale(svc, "alice.near", "t1", models.NativePrice(models.NewAmount(1000)))

	err := svc.UpdatePrice("mallory.near", "nft.near", "t1", models.NativePrice(models.NewAmount(1)), oneYocto)
	if !errors.Is(err, contracts.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	err = svc.UpdatePrice("alice.near", "nft.near", "t1", models.NativePrice(models.NewAmount(2000)), models.Amount{})
	if !errors.Is(err, contracts.ErrIntentNotConfirmed) {
		t.Fatalf("expected ErrIntentNotConfirmed, got %v", err)
	}

	if err := svc.UpdatePrice("alice.near", "nft.near", "t1", models.NativePrice(models.NewAmount(2000)), oneYocto); err != nil {
		t.Fatalf("update price: %v", err)
	}
	sale, _ := svc.GetSale("nft.near", "t1")
	if !sale.Conditions.Amount.Equal(models.NewAmount(2000)) {
		t.Fatalf("price not updated: %+v", sale.Conditions)
	}
}

func TestRemoveSaleChecksSellerBeforeMutating(t *testing.T) {
	svc, _, store := newMarketFixture(t)
	listSale(svc, "alice.near", "t1", models.NativePrice(models.NewAmount(1000)))

	_, err := svc.RemoveSale("mallory.near", "nft.near", "t1", oneYocto)
	if !errors.Is(err, contracts.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if store.SaleCount() != 1 {
		t.Fatal("rejected removal must leave the sale standing")
	}

	sale, err := svc.RemoveSale("alice.near", "nft.near", "t1", oneYocto)
	if err != nil || sale.TokenID != "t1" {
		t.Fatalf("remove sale: %+v, %v", sale, err)
	}
	if _, err := svc.RemoveSale("alice.near", "nft.near", "t1", oneYocto); !errors.Is(err, contracts.ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound on second removal, got %v", err)
	}
	if store.SaleCount() != 0 || store.SellerSaleCount("alice.near") != 0 || store.ContractTokenCount("nft.near") != 0 {
		t.Fatal("removal must clear every table")
	}
}

func TestStorageDepositAndWithdraw(t *testing.T) {
	svc, rt, _ := newMarketFixture(t)

	err := svc.StorageDeposit("alice.near", "", models.NewAmount(1))
	if !errors.Is(err, contracts.ErrInsufficientDeposit) {
		t.Fatalf("expected ErrInsufficientDeposit, got %v", err)
	}

	depositFor(svc, "alice.near", 2)
	if err := svc.List("nft.near", approvalFor("alice.near", "t1", "1000")); err != nil {
		t.Fatalf("list: %v", err)
	}

	refund, err := svc.StorageWithdraw("alice.near", oneYocto)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !refund.Equal(saleStorageCost) {
		t.Fatalf("refund %s, want cover for one unused listing", refund)
	}
	if !rt.NativeBalanceOf("alice.near").Equal(saleStorageCost) {
		t.Fatalf("refund not transferred, balance %s", rt.NativeBalanceOf("alice.near"))
	}
	if !svc.DepositOf("alice.near").Equal(saleStorageCost) {
		t.Fatalf("active listing cover must stay retained, got %s", svc.DepositOf("alice.near"))
	}

	// Nothing left beyond the retained cover.
	refund, err = svc.StorageWithdraw("alice.near", oneYocto)
	if err != nil || !refund.IsZero() {
		t.Fatalf("second withdraw: %s, %v", refund, err)
	}
}

func TestDepositCreditsOtherAccount(t *testing.T) {
	svc, _, _ := newMarketFixture(t)
	if err := svc.StorageDeposit("alice.near", "bob.near", saleStorageCost); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if !svc.DepositOf("bob.near").Equal(saleStorageCost) {
		t.Fatal("deposit must credit the named account")
	}
	if !svc.DepositOf("alice.near").IsZero() {
		t.Fatal("payer must not be credited")
	}
}

func TestViewsPaging(t *testing.T) {
	svc, _, _ := newMarketFixture(t)
	for _, id := range []models.TokenID{"t1", "t2", "t3"} {
		listSale(svc, "alice.near", id, models.NativePrice(models.NewAmount(1000)))
	}
	listSale(svc, "bob.near", "t9", models.NativePrice(models.NewAmount(5)))

	if svc.SupplySales() != 4 || svc.SupplyBySeller("alice.near") != 3 || svc.SupplyByContract("nft.near") != 4 {
		t.Fatal("unexpected supplies")
	}
	page := svc.Sales(1, 2)
	if len(page) != 2 || page[0].TokenID != "t2" || page[1].TokenID != "t3" {
		t.Fatalf("unexpected page: %+v", page)
	}
	bySeller := svc.SalesBySeller("bob.near", 0, 10)
	if len(bySeller) != 1 || bySeller[0].TokenID != "t9" {
		t.Fatalf("unexpected seller page: %+v", bySeller)
	}
	byContract := svc.SalesByContract("nft.near", 3, 10)
	if len(byContract) != 1 || byContract[0].TokenID != "t9" {
		t.Fatalf("unexpected contract page: %+v", byContract)
	}
}
