package catalog

import (
	"errors"
	"sync"
)

var (
	ErrUnknownFamily      = errors.New("unknown product family")
	ErrUnknownSubcategory = errors.New("unknown subcategory")
	ErrItemNotFound       = errors.New("item not found")
)

// Item is one purchasable bundle within a subcategory. IDs are assigned
// max(existing)+1 and are never reused after a removal.
type Item struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Validity string `json:"validity"`
}

// Store holds the admin-editable price lists for the data and sms product
// families, each partitioned into named subcategories.
type Store struct {
	mu       sync.Mutex
	families map[string]*family
}

type family struct {
	order   []string
	subcats map[string][]Item
}

func NewStore() *Store {
	return &Store{
		families: map[string]*family{
			"data": {subcats: make(map[string][]Item)},
			"sms":  {subcats: make(map[string][]Item)},
		},
	}
}

// NewDefaultStore returns a store seeded with the stock Kenyan bundle lists.
func NewDefaultStore() *Store {
	s := NewStore()
	seed := func(fam, subcat string, items []Item) {
		for _, it := range items {
			s.Add(fam, subcat, it.Name, it.Price, it.Validity)
		}
	}
	s.AddSubcategory("data", "hourly")
	s.AddSubcategory("data", "daily")
	s.AddSubcategory("data", "weekly")
	s.AddSubcategory("data", "monthly")
	s.AddSubcategory("sms", "daily")
	s.AddSubcategory("sms", "weekly")
	s.AddSubcategory("sms", "monthly")

	seed("data", "hourly", []Item{
		{Name: "1GB", Price: 19, Validity: "1 hour"},
		{Name: "1.5GB", Price: 49, Validity: "3 hours"},
	})
	seed("data", "daily", []Item{
		{Name: "150MB", Price: 10, Validity: "24 hours"},
		{Name: "250MB", Price: 20, Validity: "24 hours"},
		{Name: "350MB", Price: 26, Validity: "24 hours"},
		{Name: "1GB", Price: 58, Validity: "24 hours"},
		{Name: "1.25GB", Price: 55, Validity: "till midnight"},
	})
	seed("data", "weekly", []Item{
		{Name: "350MB", Price: 47, Validity: "7 days"},
		{Name: "500MB", Price: 49, Validity: "7 days"},
		{Name: "1.5GB", Price: 150, Validity: "7 days"},
		{Name: "6GB", Price: 700, Validity: "7 days"},
	})
	seed("data", "monthly", []Item{
		{Name: "1.2GB", Price: 250, Validity: "30 days"},
		{Name: "2.5GB", Price: 500, Validity: "30 days"},
		{Name: "10GB", Price: 1001, Validity: "30 days"},
	})
	seed("sms", "daily", []Item{
		{Name: "200 SMS", Price: 10, Validity: "24 hours"},
		{Name: "20 SMS", Price: 5, Validity: "24 hours"},
	})
	seed("sms", "weekly", []Item{
		{Name: "1000 SMS", Price: 30, Validity: "7 days"},
	})
	seed("sms", "monthly", []Item{
		{Name: "1500 SMS", Price: 100, Validity: "30 days"},
	})
	return s
}

// Families returns the product family names in display order.
func (s *Store) Families() []string {
	return []string{"data", "sms"}
}

// Subcategories lists the subcategory names of a family in insertion order.
func (s *Store) Subcategories(fam string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.families[fam]
	if !ok {
		return nil, ErrUnknownFamily
	}
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out, nil
}

// AddSubcategory creates an empty subcategory if it does not exist yet.
func (s *Store) AddSubcategory(fam, subcat string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.families[fam]
	if !ok {
		return ErrUnknownFamily
	}
	if _, exists := f.subcats[subcat]; !exists {
		f.subcats[subcat] = nil
		f.order = append(f.order, subcat)
	}
	return nil
}

// Items returns a copy of the item list for a subcategory.
func (s *Store) Items(fam, subcat string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.lookup(fam, subcat)
	if err != nil {
		return nil, err
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out, nil
}

// Get finds an item by id within a subcategory.
func (s *Store) Get(fam, subcat string, id int) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.lookup(fam, subcat)
	if err != nil {
		return Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return Item{}, ErrItemNotFound
}

// Add appends a new item, assigning id max(existing)+1 (1 if empty).
func (s *Store) Add(fam, subcat, name string, price int64, validity string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.lookup(fam, subcat)
	if err != nil {
		return Item{}, err
	}
	next := 1
	for _, it := range items {
		if it.ID >= next {
			next = it.ID + 1
		}
	}
	item := Item{ID: next, Name: name, Price: price, Validity: validity}
	s.families[fam].subcats[subcat] = append(items, item)
	return item, nil
}

// Remove deletes an item by id. The id is retired, not recycled.
func (s *Store) Remove(fam, subcat string, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.lookup(fam, subcat)
	if err != nil {
		return err
	}
	for i, it := range items {
		if it.ID == id {
			s.families[fam].subcats[subcat] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Edit replaces an existing item's fields, keeping its id.
func (s *Store) Edit(fam, subcat string, id int, name string, price int64, validity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.lookup(fam, subcat)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			items[i].Name = name
			items[i].Price = price
			items[i].Validity = validity
			return nil
		}
	}
	return ErrItemNotFound
}

// Snapshot returns the full catalog for the dashboard API.
func (s *Store) Snapshot() map[string]map[string][]Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[string][]Item, len(s.families))
	for fam, f := range s.families {
		m := make(map[string][]Item, len(f.subcats))
		for subcat, items := range f.subcats {
			cp := make([]Item, len(items))
			copy(cp, items)
			m[subcat] = cp
		}
		out[fam] = m
	}
	return out
}

func (s *Store) lookup(fam, subcat string) ([]Item, error) {
	f, ok := s.families[fam]
	if !ok {
		return nil, ErrUnknownFamily
	}
	items, ok := f.subcats[subcat]
	if !ok {
		return nil, ErrUnknownSubcategory
	}
	return items, nil
}
