// Package storage defines the persistence contract for scan results. The
// engine never talks to a database directly; sessions hand their finalized
// assets to a Storage implementation keyed by scan ID.
package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/scopehound/scopehound/internal/types"
)

// Scan is the persisted record of one discovery run.
type Scan struct {
	ID             string
	Target         string
	StartedAt      time.Time
	CompletedAt    time.Time
	ASNCount       int
	DomainCount    int
	SubdomainCount int
}

// Storage persists scans and their assets. Implementations must be safe for
// concurrent use.
type Storage interface {
	SaveScan(ctx context.Context, scan Scan) error
	SaveASNs(ctx context.Context, scanID string, asns []types.ASN) error
	SaveDomains(ctx context.Context, scanID string, domains []types.Domain) error

	Scans(ctx context.Context) ([]Scan, error)
	Scan(ctx context.Context, id string) (*Scan, error)
	ASNs(ctx context.Context, scanID string) ([]types.ASN, error)
	Domains(ctx context.Context, scanID string) ([]types.Domain, error)

	Close() error
}

// DefaultPath returns the standard database location,
// $HOME/.scopehound/scopehound.db, falling back to the working directory
// when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scopehound/scopehound.db"
	}
	return filepath.Join(home, ".scopehound", "scopehound.db")
}
