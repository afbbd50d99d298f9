package registry

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/provenance-io/p8e-publisher/interfaces"
)

// MemoryLedgerURL selects a process-local InMemoryLedger instead of a network ledger.
const MemoryLedgerURL = "memory://"

// Factory connects to destination ledgers, reusing one connection per ledger
// URL and query timeout.
type Factory struct {
	mutex   sync.Mutex
	log     *slog.Logger
	ledgers map[string]interfaces.Ledger
}

// NewFactory creates an empty factory.
func NewFactory(log *slog.Logger) *Factory {
	return &Factory{
		log:     log,
		ledgers: make(map[string]interfaces.Ledger),
	}
}

// LedgerFor returns the ledger of dest.
func (f *Factory) LedgerFor(dest interfaces.Destination) (interfaces.Ledger, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	key := dest.LedgerURL + "|" + dest.QueryTimeout().String()
	if strings.HasPrefix(dest.LedgerURL, MemoryLedgerURL) {
		key = MemoryLedgerURL + dest.ChainID
	}
	if ledger, ok := f.ledgers[key]; ok {
		return ledger, nil
	}

	var ledger interfaces.Ledger
	if strings.HasPrefix(dest.LedgerURL, MemoryLedgerURL) {
		f.log.Warn("Using in-memory ledger", slog.String("location", dest.Name), slog.String("chainID", dest.ChainID))
		ledger = NewInMemoryLedger(dest.ChainID)
	} else {
		client, err := Dial(dest.LedgerURL, DialOptions{QueryTimeout: dest.QueryTimeout()}, f.log)
		if err != nil {
			return nil, fmt.Errorf("ledger for %s: %w", dest.Name, err)
		}
		ledger = client
	}

	f.ledgers[key] = ledger
	return ledger, nil
}

// BroadcasterFor returns a broadcaster signing for dest's chain.
func (f *Factory) BroadcasterFor(dest interfaces.Destination) (interfaces.Broadcaster, error) {
	ledger, err := f.LedgerFor(dest)
	if err != nil {
		return nil, err
	}
	return NewBroadcaster(ledger, dest.ChainID, f.log.With(slog.String("location", dest.Name))), nil
}

// Close closes every ledger connection.
func (f *Factory) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	var firstErr error
	for key, ledger := range f.ledgers {
		if err := ledger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(f.ledgers, key)
	}
	return firstErr
}
