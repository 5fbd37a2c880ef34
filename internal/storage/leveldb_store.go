package storage

import (
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// Key prefixes of the shared LevelDB keyspace. Member keys under the index
// prefixes carry no value; key order doubles as enumeration order.
const (
	kpToken       = "tok/"
	kpMetadata    = "meta/"
	kpOwnerIndex  = "own/"
	kpSale        = "sale/"
	kpSellerIndex = "slr/"
	kpContractIdx = "ctr/"
	kpDeposit     = "dep/"
)

// LevelDB wraps one goleveldb database holding every settlement table.
// Unlike the snapshot stores, enumeration order is lexicographic key order
// rather than insertion order.
type LevelDB struct {
	db *leveldb.DB
}

func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb at %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Tokens returns the token-table view of the database.
func (l *LevelDB) Tokens() *LevelTokenStore { return &LevelTokenStore{db: l.db} }

// Sales returns the market-table view of the database.
func (l *LevelDB) Sales() *LevelSaleStore { return &LevelSaleStore{db: l.db} }

// LevelTokenStore implements the token repository over LevelDB.
type LevelTokenStore struct {
	db *leveldb.DB
}

func (s *LevelTokenStore) GetToken(id models.TokenID) (models.Token, bool) {
	var tok models.Token
	if !getJSON(s.db, kpToken+string(id), &tok) {
		return models.Token{}, false
	}
	return tok, true
}

func (s *LevelTokenStore) PutToken(id models.TokenID, tok models.Token) {
	putJSON(s.db, kpToken+string(id), tok)
}

func (s *LevelTokenStore) GetMetadata(id models.TokenID) (models.TokenMetadata, bool) {
	var meta models.TokenMetadata
	if !getJSON(s.db, kpMetadata+string(id), &meta) {
		return models.TokenMetadata{}, false
	}
	return meta, true
}

func (s *LevelTokenStore) PutMetadata(id models.TokenID, meta models.TokenMetadata) {
	putJSON(s.db, kpMetadata+string(id), meta)
}

func (s *LevelTokenStore) TokenCount() int {
	return countPrefix(s.db, kpToken)
}

func (s *LevelTokenStore) TokenIDs(from, limit int) []models.TokenID {
	return pageSuffixes[models.TokenID](s.db, kpToken, from, limit)
}

func (s *LevelTokenStore) OwnerTokenCount(owner models.AccountID) int {
	return countPrefix(s.db, kpOwnerIndex+string(owner)+"/")
}

func (s *LevelTokenStore) OwnerTokens(owner models.AccountID, from, limit int) []models.TokenID {
	return pageSuffixes[models.TokenID](s.db, kpOwnerIndex+string(owner)+"/", from, limit)
}

func (s *LevelTokenStore) AddTokenToOwner(owner models.AccountID, id models.TokenID) {
	_ = s.db.Put([]byte(kpOwnerIndex+string(owner)+"/"+string(id)), nil, nil)
}

func (s *LevelTokenStore) RemoveTokenFromOwner(owner models.AccountID, id models.TokenID) bool {
	key := []byte(kpOwnerIndex + string(owner) + "/" + string(id))
	existed, err := s.db.Has(key, nil)
	if err != nil || !existed {
		return false
	}
	_ = s.db.Delete(key, nil)
	return true
}

// LevelSaleStore implements the sale and deposit repositories over LevelDB.
type LevelSaleStore struct {
	db *leveldb.DB
}

func (s *LevelSaleStore) GetSale(key models.SaleKey) (models.Sale, bool) {
	var sale models.Sale
	if !getJSON(s.db, kpSale+string(key), &sale) {
		return models.Sale{}, false
	}
	return sale, true
}

func (s *LevelSaleStore) PutSale(key models.SaleKey, sale models.Sale) {
	putJSON(s.db, kpSale+string(key), sale)
}

func (s *LevelSaleStore) DeleteSale(key models.SaleKey) bool {
	dbKey := []byte(kpSale + string(key))
	existed, err := s.db.Has(dbKey, nil)
	if err != nil || !existed {
		return false
	}
	_ = s.db.Delete(dbKey, nil)
	return true
}

func (s *LevelSaleStore) SaleCount() int {
	return countPrefix(s.db, kpSale)
}

func (s *LevelSaleStore) SaleKeys(from, limit int) []models.SaleKey {
	return pageSuffixes[models.SaleKey](s.db, kpSale, from, limit)
}

func (s *LevelSaleStore) SellerSaleCount(seller models.AccountID) int {
	return countPrefix(s.db, kpSellerIndex+string(seller)+"/")
}

func (s *LevelSaleStore) SellerSales(seller models.AccountID, from, limit int) []models.SaleKey {
	return pageSuffixes[models.SaleKey](s.db, kpSellerIndex+string(seller)+"/", from, limit)
}

func (s *LevelSaleStore) AddSaleToSeller(seller models.AccountID, key models.SaleKey) {
	_ = s.db.Put([]byte(kpSellerIndex+string(seller)+"/"+string(key)), nil, nil)
}

func (s *LevelSaleStore) RemoveSaleFromSeller(seller models.AccountID, key models.SaleKey) bool {
	dbKey := []byte(kpSellerIndex + string(seller) + "/" + string(key))
	existed, err := s.db.Has(dbKey, nil)
	if err != nil || !existed {
		return false
	}
	_ = s.db.Delete(dbKey, nil)
	return true
}

func (s *LevelSaleStore) ContractTokenCount(contract models.AccountID) int {
	return countPrefix(s.db, kpContractIdx+string(contract)+"/")
}

func (s *LevelSaleStore) ContractTokens(contract models.AccountID, from, limit int) []models.TokenID {
	return pageSuffixes[models.TokenID](s.db, kpContractIdx+string(contract)+"/", from, limit)
}

func (s *LevelSaleStore) AddTokenToContract(contract models.AccountID, id models.TokenID) {
	_ = s.db.Put([]byte(kpContractIdx+string(contract)+"/"+string(id)), nil, nil)
}

func (s *LevelSaleStore) RemoveTokenFromContract(contract models.AccountID, id models.TokenID) bool {
	dbKey := []byte(kpContractIdx + string(contract) + "/" + string(id))
	existed, err := s.db.Has(dbKey, nil)
	if err != nil || !existed {
		return false
	}
	_ = s.db.Delete(dbKey, nil)
	return true
}

func (s *LevelSaleStore) GetDeposit(account models.AccountID) (models.Amount, bool) {
	var bal models.Amount
	if !getJSON(s.db, kpDeposit+string(account), &bal) {
		return models.Amount{}, false
	}
	return bal, true
}

func (s *LevelSaleStore) PutDeposit(account models.AccountID, balance models.Amount) {
	putJSON(s.db, kpDeposit+string(account), balance)
}

func (s *LevelSaleStore) RemoveDeposit(account models.AccountID) (models.Amount, bool) {
	bal, ok := s.GetDeposit(account)
	if !ok {
		return models.Amount{}, false
	}
	_ = s.db.Delete([]byte(kpDeposit+string(account)), nil)
	return bal, true
}

func getJSON(db *leveldb.DB, key string, v any) bool {
	raw, err := db.Get([]byte(key), nil)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func putJSON(db *leveldb.DB, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = db.Put([]byte(key), raw, nil)
}

func countPrefix(db *leveldb.DB, prefix string) int {
	iter := db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	n := 0
	for iter.Next() {
		n++
	}
	return n
}

func pageSuffixes[K ~string](db *leveldb.DB, prefix string, from, limit int) []K {
	if limit <= 0 {
		return nil
	}
	iter := db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	var out []K
	idx := 0
	for iter.Next() {
		if idx >= from {
			out = append(out, K(iter.Key()[len(prefix):]))
			if len(out) == limit {
				break
			}
		}
		idx++
	}
	return out
}
