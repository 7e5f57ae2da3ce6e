package order

import (
	"sort"
	"sync"
	"time"
)

// MemoryLedger keeps all orders in process memory. State is lost on
// restart; that is intentional for the stock deployment.
type MemoryLedger struct {
	mu     sync.Mutex
	orders map[string]*Order
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{orders: make(map[string]*Order)}
}

func (l *MemoryLedger) Create(customer, pkg string, amount int64) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := NewID()
	for {
		if _, taken := l.orders[id]; !taken {
			break
		}
		id = NewID()
	}
	o := &Order{
		OrderID:   id,
		Customer:  customer,
		Package:   pkg,
		Amount:    amount,
		Status:    StatusPending,
		Timestamp: time.Now(),
	}
	l.orders[id] = o
	return *o, nil
}

func (l *MemoryLedger) Get(orderID string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	return *o, nil
}

func (l *MemoryLedger) SetRecipient(orderID, phone string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Recipient = phone
	return nil
}

func (l *MemoryLedger) SetPayment(orderID, phone string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Payment = phone
	return nil
}

func (l *MemoryLedger) UpdateStatus(orderID, status, remark string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	o.Status = status
	o.Remark = remark
	return *o, nil
}

func (l *MemoryLedger) MarkBonusCredited(orderID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return false, ErrNotFound
	}
	if o.BonusCredited {
		return false, nil
	}
	o.BonusCredited = true
	return true, nil
}

func (l *MemoryLedger) LatestPending(customer string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var latest *Order
	for _, o := range l.orders {
		if o.Customer != customer || o.Status != StatusPending {
			continue
		}
		if latest == nil || o.Timestamp.After(latest.Timestamp) {
			latest = o
		}
	}
	if latest == nil {
		return Order{}, ErrNotFound
	}
	return *latest, nil
}

func (l *MemoryLedger) ByCustomer(customer string) ([]Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Order
	for _, o := range l.orders {
		if o.Customer == customer {
			out = append(out, *o)
		}
	}
	sortByTime(out)
	return out, nil
}

func (l *MemoryLedger) All() ([]Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Order, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, *o)
	}
	sortByTime(out)
	return out, nil
}

func sortByTime(orders []Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].Timestamp.Before(orders[j].Timestamp)
	})
}
