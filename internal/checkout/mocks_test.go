package checkout

import (
	"context"
	"sync"

	"github.com/aingc/stripe-example/internal/catalog"
)

// MockSource implements catalog.Source for testing. Build returns a fresh
// Catalog per Load, mirroring the no-caching contract of real sources.
type MockSource struct {
	Build func() *catalog.Catalog
	Err   error

	mu    sync.Mutex
	loads int
}

func (m *MockSource) Load(_ context.Context) (*catalog.Catalog, error) {
	m.mu.Lock()
	m.loads++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Build(), nil
}

func (m *MockSource) Loads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

// MockProcessor implements Processor and records every submission so tests
// can assert exactly how many charges went out.
type MockProcessor struct {
	Receipt *Receipt
	Err     error

	mu       sync.Mutex
	requests []ChargeRequest
}

func (m *MockProcessor) Charge(_ context.Context, req ChargeRequest) (*Receipt, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Receipt != nil {
		return m.Receipt, nil
	}
	return &Receipt{ChargeID: "ch_test", Amount: req.Amount, Currency: req.Currency}, nil
}

func (m *MockProcessor) Requests() []ChargeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChargeRequest(nil), m.requests...)
}

// twoItemSource builds the reference catalog {A: 500, B: 1200}.
func twoItemSource() *MockSource {
	return &MockSource{
		Build: func() *catalog.Catalog {
			return &catalog.Catalog{Groups: []catalog.Group{
				{Name: "music", Items: []catalog.Item{
					{ID: "A", Name: "Album A", Price: 500},
					{ID: "B", Name: "Album B", Price: 1200},
				}},
			}}
		},
	}
}
