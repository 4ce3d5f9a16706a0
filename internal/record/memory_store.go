package record

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps records in memory, keyed by id and checked against the
// owning business on every lookup.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[int64]Transaction
	bookings     map[int64]Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[int64]Transaction),
		bookings:     make(map[int64]Booking),
	}
}

func (s *MemoryStore) PutTransaction(tx Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = tx
}

func (s *MemoryStore) PutBooking(b Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b
}

func (s *MemoryStore) FindTransaction(_ context.Context, businessID, id int64) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok || tx.BusinessID != businessID {
		return Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	tx.Payments = append([]PaymentLine(nil), tx.Payments...)
	return tx, nil
}

func (s *MemoryStore) FindBooking(_ context.Context, businessID, id int64) (Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok || b.BusinessID != businessID {
		return Booking{}, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	return b, nil
}
