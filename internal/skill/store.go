package skill

import "github.com/labstack/gommon/log"

//
// ScreenerStore holds the classified answers for one webhook
// request: domain -> category -> skill code -> binary value.
// a store is created empty at the start of preprocessing, read by
// the aggregator and the persistence adapter, and discarded when
// the request completes. it is never shared between requests.
//
type ScreenerStore map[Domain]map[Category]map[string]int

// NewScreenerStore creates an empty request-scoped store.
func NewScreenerStore() ScreenerStore {
	return ScreenerStore{}
}

//
// Add records a binary value for a skill code, overwriting any
// previous value at the same (domain, category, code) path.
//
func (st ScreenerStore) Add(domain Domain, category Category, code string, value int) {
	if _, ok := st[domain]; !ok {
		st[domain] = map[Category]map[string]int{}
	}
	if _, ok := st[domain][category]; !ok {
		st[domain][category] = map[string]int{}
	}
	if old, ok := st[domain][category][code]; ok {
		log.Infof("updating skill %s in %s/%s: %d -> %d", code, domain, category, old, value)
	}
	st[domain][category][code] = value
}

// Get returns the value recorded at a path, ok false when absent.
func (st ScreenerStore) Get(domain Domain, category Category, code string) (int, bool) {
	v, ok := st[domain][category][code]
	return v, ok
}

//
// CategoryValues returns the skill values recorded under one
// (domain, category) pair; nil when the pair has no entries.
//
func (st ScreenerStore) CategoryValues(domain Domain, category Category) map[string]int {
	return st[domain][category]
}
