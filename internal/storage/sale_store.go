package storage

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/securestore"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// SaleStore keeps the market tables in memory with optional snapshot
// persistence: the primary sale map, the by-seller and by-contract
// secondary indices, and the storage-deposit balances. Listing order is
// preserved for stable paging.
type SaleStore struct {
	mu         sync.RWMutex
	sales      map[models.SaleKey]models.Sale
	listOrder  []models.SaleKey
	bySeller   map[models.AccountID][]models.SaleKey
	byContract map[models.AccountID][]models.TokenID
	deposits   map[models.AccountID]models.Amount
	path       string
	secret     string
	saveErr    error
}

func NewSaleStore() *SaleStore {
	return &SaleStore{
		sales:      make(map[models.SaleKey]models.Sale),
		bySeller:   make(map[models.AccountID][]models.SaleKey),
		byContract: make(map[models.AccountID][]models.TokenID),
		deposits:   make(map[models.AccountID]models.Amount),
	}
}

func NewPersistentSaleStore(path string) (*SaleStore, error) {
	return NewEncryptedPersistentSaleStore(path, "")
}

func NewEncryptedPersistentSaleStore(path, passphrase string) (*SaleStore, error) {
	s := NewSaleStore()
	s.path = path
	s.secret = passphrase
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SaleStore) GetSale(key models.SaleKey) (models.Sale, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sale, ok := s.sales[key]
	return sale, ok
}

func (s *SaleStore) PutSale(key models.SaleKey, sale models.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sales[key]; !exists {
		s.listOrder = append(s.listOrder, key)
	}
	s.sales[key] = sale
	s.saveLocked()
}

func (s *SaleStore) DeleteSale(key models.SaleKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales[key]; !ok {
		return false
	}
	delete(s.sales, key)
	s.listOrder, _ = removeKey(s.listOrder, key)
	s.saveLocked()
	return true
}

func (s *SaleStore) SaleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sales)
}

func (s *SaleStore) SaleKeys(from, limit int) []models.SaleKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pageOf(s.listOrder, from, limit)
}

func (s *SaleStore) SellerSaleCount(seller models.AccountID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bySeller[seller])
}

func (s *SaleStore) SellerSales(seller models.AccountID, from, limit int) []models.SaleKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pageOf(s.bySeller[seller], from, limit)
}

func (s *SaleStore) AddSaleToSeller(seller models.AccountID, key models.SaleKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsKey(s.bySeller[seller], key) {
		return
	}
	s.bySeller[seller] = append(s.bySeller[seller], key)
	s.saveLocked()
}

func (s *SaleStore) RemoveSaleFromSeller(seller models.AccountID, key models.SaleKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, removed := removeKey(s.bySeller[seller], key)
	if !removed {
		return false
	}
	if len(next) == 0 {
		delete(s.bySeller, seller)
	} else {
		s.bySeller[seller] = next
	}
	s.saveLocked()
	return true
}

func (s *SaleStore) ContractTokenCount(contract models.AccountID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byContract[contract])
}

func (s *SaleStore) ContractTokens(contract models.AccountID, from, limit int) []models.TokenID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pageOf(s.byContract[contract], from, limit)
}

func (s *SaleStore) AddTokenToContract(contract models.AccountID, id models.TokenID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsKey(s.byContract[contract], id) {
		return
	}
	s.byContract[contract] = append(s.byContract[contract], id)
	s.saveLocked()
}

func (s *SaleStore) RemoveTokenFromContract(contract models.AccountID, id models.TokenID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, removed := removeKey(s.byContract[contract], id)
	if !removed {
		return false
	}
	if len(next) == 0 {
		delete(s.byContract, contract)
	} else {
		s.byContract[contract] = next
	}
	s.saveLocked()
	return true
}

func (s *SaleStore) GetDeposit(account models.AccountID) (models.Amount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bal, ok := s.deposits[account]
	return bal, ok
}

func (s *SaleStore) PutDeposit(account models.AccountID, balance models.Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposits[account] = balance
	s.saveLocked()
}

func (s *SaleStore) RemoveDeposit(account models.AccountID) (models.Amount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, ok := s.deposits[account]
	if !ok {
		return models.Amount{}, false
	}
	delete(s.deposits, account)
	s.saveLocked()
	return bal, true
}

// Flush rewrites the snapshot and surfaces the last deferred save error.
func (s *SaleStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = nil
	s.saveLocked()
	return s.saveErr
}

type saleSnapshot struct {
	Sales      map[models.SaleKey]models.Sale        `json:"sales"`
	ListOrder  []models.SaleKey                      `json:"list_order"`
	BySeller   map[models.AccountID][]models.SaleKey `json:"by_seller"`
	ByContract map[models.AccountID][]models.TokenID `json:"by_contract"`
	Deposits   map[models.AccountID]models.Amount    `json:"deposits"`
}

func (s *SaleStore) saveLocked() {
	if s.path == "" {
		return
	}
	snap := saleSnapshot{
		Sales:      s.sales,
		ListOrder:  s.listOrder,
		BySeller:   s.bySeller,
		ByContract: s.byContract,
		Deposits:   s.deposits,
	}
	if err := securestore.WriteSnapshot(s.path, s.secret, snap); err != nil {
		s.saveErr = err
	}
}

func (s *SaleStore) load() error {
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
	var snap saleSnapshot
	if err := json.Unmarshal(decoded, &snap); err != nil {
		return err
	}
	if snap.Sales != nil {
		s.sales = snap.Sales
	}
	if snap.BySeller != nil {
		s.bySeller = snap.BySeller
	}
	if snap.ByContract != nil {
		s.byContract = snap.ByContract
	}
	if snap.Deposits != nil {
		s.deposits = snap.Deposits
	}
	s.listOrder = snap.ListOrder
	return nil
}
