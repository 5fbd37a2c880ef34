package storage

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/securestore"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// TokenStore keeps the NFT tables in memory and mirrors every mutation to
// an optional snapshot file. Mint order is preserved so enumeration pages
// are stable across restarts.
type TokenStore struct {
	mu        sync.RWMutex
	tokens    map[models.TokenID]models.Token
	metadata  map[models.TokenID]models.TokenMetadata
	mintOrder []models.TokenID
	byOwner   map[models.AccountID][]models.TokenID
	path      string
	secret    string
	saveErr   error
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens:   make(map[models.TokenID]models.Token),
		metadata: make(map[models.TokenID]models.TokenMetadata),
		byOwner:  make(map[models.AccountID][]models.TokenID),
	}
}

func NewPersistentTokenStore(path string) (*TokenStore, error) {
	return NewEncryptedPersistentTokenStore(path, "")
}

func NewEncryptedPersistentTokenStore(path, passphrase string) (*TokenStore, error) {
	s := NewTokenStore()
	s.path = path
	s.secret = passphrase
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TokenStore) GetToken(id models.TokenID) (models.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[id]
	if !ok {
		return models.Token{}, false
	}
	return cloneToken(tok), true
}

func (s *TokenStore) PutToken(id models.TokenID, tok models.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[id]; !exists {
		s.mintOrder = append(s.mintOrder, id)
	}
	s.tokens[id] = cloneToken(tok)
	s.saveLocked()
}

func (s *TokenStore) GetMetadata(id models.TokenID) (models.TokenMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.metadata[id]
	return meta, ok
}

func (s *TokenStore) PutMetadata(id models.TokenID, meta models.TokenMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[id] = meta
	s.saveLocked()
}

func (s *TokenStore) TokenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

func (s *TokenStore) TokenIDs(from, limit int) []models.TokenID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pageOf(s.mintOrder, from, limit)
}

func (s *TokenStore) OwnerTokenCount(owner models.AccountID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byOwner[owner])
}

func (s *TokenStore) OwnerTokens(owner models.AccountID, from, limit int) []models.TokenID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pageOf(s.byOwner[owner], from, limit)
}

func (s *TokenStore) AddTokenToOwner(owner models.AccountID, id models.TokenID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsKey(s.byOwner[owner], id) {
		return
	}
	s.byOwner[owner] = append(s.byOwner[owner], id)
	s.saveLocked()
}

func (s *TokenStore) RemoveTokenFromOwner(owner models.AccountID, id models.TokenID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, removed := removeKey(s.byOwner[owner], id)
	if !removed {
		return false
	}
	if len(next) == 0 {
		delete(s.byOwner, owner)
	} else {
		s.byOwner[owner] = next
	}
	s.saveLocked()
	return true
}

// Flush rewrites the snapshot and surfaces the last deferred save error.
func (s *TokenStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = nil
	s.saveLocked()
	return s.saveErr
}

type tokenSnapshot struct {
	Tokens    map[models.TokenID]models.Token         `json:"tokens"`
	Metadata  map[models.TokenID]models.TokenMetadata `json:"metadata"`
	MintOrder []models.TokenID                        `json:"mint_order"`
	ByOwner   map[models.AccountID][]models.TokenID   `json:"by_owner"`
}

func (s *TokenStore) saveLocked() {
	if s.path == "" {
		return
	}
	snap := tokenSnapshot{
		Tokens:    s.tokens,
		Metadata:  s.metadata,
		MintOrder: s.mintOrder,
		ByOwner:   s.byOwner,
	}
	if err := securestore.WriteSnapshot(s.path, s.secret, snap); err != nil {
		s.saveErr = err
	}
}

func (s *TokenStore) load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	decoded, err := securestore.DecodeSnapshot(s.secret, data)
	if err != nil {
		return err
	}
	var snap tokenSnapshot
	if err := json.Unmarshal(decoded, &snap); err != nil {
		return err
	}
	if snap.Tokens != nil {
		s.tokens = snap.Tokens
	}
	if snap.Metadata != nil {
		s.metadata = snap.Metadata
	}
	if snap.ByOwner != nil {
		s.byOwner = snap.ByOwner
	}
	s.mintOrder = snap.MintOrder
	return nil
}

func cloneToken(tok models.Token) models.Token {
	out := tok
	out.ApprovedAccounts = tok.CloneApprovals()
	if tok.Royalty != nil {
		out.Royalty = make(map[models.AccountID]uint32, len(tok.Royalty))
		for acct, bp := range tok.Royalty {
			out.Royalty[acct] = bp
		}
	}
	return out
}
