package token

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/storage"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

type eventRecorder struct {
	events []models.EventLog
}

func (r *eventRecorder) Emit(event models.EventLog) {
	r.events = append(r.events, event)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Event data is a one-element array per the event standard.
func decodeTransferEvent(t *testing.T, event models.EventLog) models.TransferEventData {
	t.Helper()
	var list []models.TransferEventData
	if err := json.Unmarshal(event.Data, &list); err != nil || len(list) != 1 {
		t.Fatalf("decode transfer event %s: %v", event.Data, err)
	}
	return list[0]
}

func newOwnershipFixture(t *testing.T) (*OwnershipStore, *storage.TokenStore, *eventRecorder) {
	t.Helper()
	repo := storage.NewTokenStore()
	events := &eventRecorder{}
	return NewOwnershipStore(repo, events, quietLogger()), repo, events
}

func seedToken(repo *storage.TokenStore, id models.TokenID, owner models.AccountID, approvals map[models.AccountID]uint64, nextSeq uint64) {
	repo.PutToken(id, models.Token{
		OwnerID:          owner,
		ApprovedAccounts: approvals,
		NextApprovalSeq:  nextSeq,
	})
	repo.AddTokenToOwner(owner, id)
}

func TestTransferByOwnerClearsApprovals(t *testing.T) {
	owners, repo, events := newOwnershipFixture(t)
	seedToken(repo, "t1", "alice.near", map[models.AccountID]uint64{"market.near": 2}, 3)

	prev, err := owners.Transfer("alice.near", "bob.near", "t1", nil, "gift")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if prev.OwnerID != "alice.near" || prev.Approvals["market.near"] != 2 {
		t.Fatalf("unexpected snapshot: %+v", prev)
	}

	tok, _ := repo.GetToken("t1")
	if tok.OwnerID != "bob.near" {
		t.Fatalf("unexpected owner: %s", tok.OwnerID)
	}
	if len(tok.ApprovedAccounts) != 0 {
		t.Fatal("approvals must be cleared on ownership change")
	}
	if tok.NextApprovalSeq != 3 {
		t.Fatal("approval counter must carry forward, never reset")
	}
	if repo.OwnerTokenCount("alice.near") != 0 || repo.OwnerTokenCount("bob.near") != 1 {
		t.Fatal("reverse index out of step with token table")
	}
	if len(events.events) != 1 || events.events[0].Event != "nft_transfer" {
		t.Fatalf("unexpected events: %+v", events.events)
	}
}

func TestTransferValidation(t *testing.T) {
	owners, repo, _ := newOwnershipFixture(t)
	seedToken(repo, "t1", "alice.near", map[models.AccountID]uint64{"market.near": 5}, 6)

	seq := uint64(4)
	cases := []struct {
		name     string
		sender   models.AccountID
		receiver models.AccountID
		seq      *uint64
		want     error
	}{
		{"missing token is reported", "alice.near", "bob.near", nil, contracts.ErrTokenNotFound},
		{"stranger cannot transfer", "mallory.near", "bob.near", nil, contracts.ErrNotOwner},
		{"stale approval is rejected", "market.near", "bob.near", &seq, contracts.ErrStaleApproval},
		{"transfer to current owner is rejected", "alice.near", "alice.near", nil, contracts.ErrSelfTransfer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tokenID := models.TokenID("t1")
			if errors.Is(tc.want, contracts.ErrTokenNotFound) {
				tokenID = "missing"
			}
			_, err := owners.Transfer(tc.sender, tc.receiver, tokenID, tc.seq, "")
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	// Failed validation must not touch state.
	tok, _ := repo.GetToken("t1")
	if tok.OwnerID != "alice.near" || len(tok.ApprovedAccounts) != 1 {
		t.Fatalf("state mutated by rejected transfer: %+v", tok)
	}
}

func TestTransferByApprovedAccountMatchingSeq(t *testing.T) {
	owners, repo, events := newOwnershipFixture(t)
	seedToken(repo, "t1", "alice.near", map[models.AccountID]uint64{"market.near": 5}, 6)

	seq := uint64(5)
	prev, err := owners.Transfer("market.near", "bob.near", "t1", &seq, "")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if prev.OwnerID != "alice.near" {
		t.Fatalf("unexpected previous owner: %s", prev.OwnerID)
	}

	data := decodeTransferEvent(t, events.events[0])
	if data.AuthorizedID != "market.near" {
		t.Fatalf("expected authorized id on delegated transfer, got %q", data.AuthorizedID)
	}
}

func TestRestoreUndoesTransfer(t *testing.T) {
	owners, repo, events := newOwnershipFixture(t)
	seedToken(repo, "t1", "alice.near", map[models.AccountID]uint64{"market.near": 1}, 2)

	prev, err := owners.Transfer("alice.near", "bob.near", "t1", nil, "")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	// Bob granted an approval before the rollback arrived.
	tok, _ := repo.GetToken("t1")
	tok.ApprovedAccounts["carol.near"] = tok.NextApprovalSeq
	tok.NextApprovalSeq++
	repo.PutToken("t1", tok)

	displaced, restored := owners.Restore(prev, "t1", "bob.near")
	if !restored {
		t.Fatal("expected restore to succeed while receiver still owns the token")
	}
	if _, ok := displaced["carol.near"]; !ok {
		t.Fatalf("expected receiver's approvals back, got %+v", displaced)
	}

	tok, _ = repo.GetToken("t1")
	if tok.OwnerID != "alice.near" {
		t.Fatalf("unexpected owner after restore: %s", tok.OwnerID)
	}
	if tok.ApprovedAccounts["market.near"] != 1 {
		t.Fatalf("expected original approvals restored, got %+v", tok.ApprovedAccounts)
	}
	if tok.NextApprovalSeq != 3 {
		t.Fatal("approval counter must keep the highest value seen")
	}
	if repo.OwnerTokenCount("bob.near") != 0 || repo.OwnerTokenCount("alice.near") != 1 {
		t.Fatal("reverse index out of step after restore")
	}

	data := decodeTransferEvent(t, events.events[len(events.events)-1])
	if !data.Reversal {
		t.Fatal("restore must mark its transfer event as a reversal")
	}
}

func TestRestoreSkipsWhenTokenMovedOn(t *testing.T) {
	owners, repo, _ := newOwnershipFixture(t)
	seedToken(repo, "t1", "alice.near", nil, 0)

	prev, err := owners.Transfer("alice.near", "bob.near", "t1", nil, "")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := owners.Transfer("bob.near", "carol.near", "t1", nil, ""); err != nil {
		t.Fatalf("second transfer: %v", err)
	}

	if _, restored := owners.Restore(prev, "t1", "bob.near"); restored {
		t.Fatal("restore must be a no-op once the receiver no longer owns the token")
	}
	tok, _ := repo.GetToken("t1")
	if tok.OwnerID != "carol.near" {
		t.Fatalf("skipped restore must leave state alone, owner is %s", tok.OwnerID)
	}
}
