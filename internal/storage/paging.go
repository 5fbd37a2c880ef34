package storage

// pageOf copies the [from, from+limit) window of an insertion-ordered key
// slice. Out-of-range windows yield nil rather than an error so view
// endpoints can pass client paging straight through.
func pageOf[K ~string](keys []K, from, limit int) []K {
	if from < 0 {
		from = 0
	}
	if limit <= 0 || from >= len(keys) {
		return nil
	}
	end := from + limit
	if end > len(keys) {
		end = len(keys)
	}
	return append([]K(nil), keys[from:end]...)
}

func removeKey[K ~string](keys []K, key K) ([]K, bool) {
	for i, k := range keys {
		if k == key {
			return append(keys[:i:i], keys[i+1:]...), true
		}
	}
	return keys, false
}

func containsKey[K ~string](keys []K, key K) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
