// Package sqlite is the SQLite-backed Storage implementation. It uses the
// cgo-free driver so the binary stays a single static artifact.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/scopehound/scopehound/internal/storage"
	"github.com/scopehound/scopehound/internal/types"
)

// Store implements storage.Storage on SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.Storage = (*Store)(nil)

// New opens (creating if needed) the database at path and initializes the
// schema. WAL mode keeps concurrent readers cheap.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3",
		"file:"+path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveScan upserts one scan record.
func (s *Store) SaveScan(ctx context.Context, scan storage.Scan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (id, target, started_at, completed_at, asn_count, domain_count, subdomain_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			target = excluded.target,
			completed_at = excluded.completed_at,
			asn_count = excluded.asn_count,
			domain_count = excluded.domain_count,
			subdomain_count = excluded.subdomain_count`,
		scan.ID, scan.Target, scan.StartedAt, nullTime(scan.CompletedAt),
		scan.ASNCount, scan.DomainCount, scan.SubdomainCount)
	if err != nil {
		return fmt.Errorf("saving scan %s: %w", scan.ID, err)
	}
	return nil
}

// SaveASNs upserts the autonomous systems for a scan in one transaction.
func (s *Store) SaveASNs(ctx context.Context, scanID string, asns []types.ASN) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, asn := range asns {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO asns (scan_id, number, name, description, country, data_source)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(scan_id, number) DO UPDATE SET
					name = excluded.name,
					description = excluded.description,
					country = excluded.country,
					data_source = excluded.data_source`,
				scanID, asn.Number, asn.Name, asn.Description, asn.Country, asn.DataSource)
			if err != nil {
				return fmt.Errorf("saving %s: %w", asn.Key(), err)
			}
		}
		return nil
	})
}

// SaveDomains upserts the domains and their subdomains for a scan in one
// transaction.
func (s *Store) SaveDomains(ctx context.Context, scanID string, domains []types.Domain) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, domain := range domains {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO domains (scan_id, name, registrar, data_source)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(scan_id, name) DO UPDATE SET
					registrar = excluded.registrar,
					data_source = excluded.data_source`,
				scanID, domain.Name, domain.Registrar, domain.DataSource)
			if err != nil {
				return fmt.Errorf("saving domain %s: %w", domain.Name, err)
			}

			for _, sub := range domain.Subdomains() {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO subdomains (scan_id, domain_name, fqdn, status, resolved_ips, data_source, last_checked)
					VALUES (?, ?, ?, ?, ?, ?, ?)
					ON CONFLICT(scan_id, fqdn) DO UPDATE SET
						status = excluded.status,
						resolved_ips = excluded.resolved_ips,
						data_source = excluded.data_source,
						last_checked = excluded.last_checked`,
					scanID, domain.Name, sub.FQDN, sub.Status,
					strings.Join(sub.ResolvedIPs, ","), sub.DataSource, nullTime(sub.LastChecked))
				if err != nil {
					return fmt.Errorf("saving subdomain %s: %w", sub.FQDN, err)
				}
			}
		}
		return nil
	})
}

// Scans lists all scans, most recent first.
func (s *Store) Scans(ctx context.Context) ([]storage.Scan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target, started_at, completed_at, asn_count, domain_count, subdomain_count
		FROM scans ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	defer rows.Close()

	var scans []storage.Scan
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	return scans, rows.Err()
}

// Scan fetches one scan by ID; nil when absent.
func (s *Store) Scan(ctx context.Context, id string) (*storage.Scan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target, started_at, completed_at, asn_count, domain_count, subdomain_count
		FROM scans WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("fetching scan %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	scan, err := scanRow(rows)
	if err != nil {
		return nil, err
	}
	return &scan, nil
}

// ASNs returns the autonomous systems recorded for a scan, by number.
func (s *Store) ASNs(ctx context.Context, scanID string) ([]types.ASN, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, name, description, country, data_source
		FROM asns WHERE scan_id = ? ORDER BY number`, scanID)
	if err != nil {
		return nil, fmt.Errorf("listing asns for scan %s: %w", scanID, err)
	}
	defer rows.Close()

	var asns []types.ASN
	for rows.Next() {
		var asn types.ASN
		if err := rows.Scan(&asn.Number, &asn.Name, &asn.Description, &asn.Country, &asn.DataSource); err != nil {
			return nil, fmt.Errorf("scanning asn row: %w", err)
		}
		asns = append(asns, asn)
	}
	return asns, rows.Err()
}

// Domains returns the domains recorded for a scan with their subdomains
// attached, by name.
func (s *Store) Domains(ctx context.Context, scanID string) ([]types.Domain, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, registrar, data_source
		FROM domains WHERE scan_id = ? ORDER BY name`, scanID)
	if err != nil {
		return nil, fmt.Errorf("listing domains for scan %s: %w", scanID, err)
	}
	defer rows.Close()

	var domains []types.Domain
	for rows.Next() {
		var d types.Domain
		if err := rows.Scan(&d.Name, &d.Registrar, &d.DataSource); err != nil {
			return nil, fmt.Errorf("scanning domain row: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range domains {
		if err := s.attachSubdomains(ctx, scanID, &domains[i]); err != nil {
			return nil, err
		}
	}
	return domains, nil
}

func (s *Store) attachSubdomains(ctx context.Context, scanID string, domain *types.Domain) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fqdn, status, resolved_ips, data_source, last_checked
		FROM subdomains WHERE scan_id = ? AND domain_name = ? ORDER BY fqdn`,
		scanID, domain.Name)
	if err != nil {
		return fmt.Errorf("listing subdomains for %s: %w", domain.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sub     types.Subdomain
			ips     string
			checked sql.NullTime
		)
		if err := rows.Scan(&sub.FQDN, &sub.Status, &ips, &sub.DataSource, &checked); err != nil {
			return fmt.Errorf("scanning subdomain row: %w", err)
		}
		if ips != "" {
			sub.ResolvedIPs = strings.Split(ips, ",")
		}
		if checked.Valid {
			sub.LastChecked = checked.Time
		}
		domain.AddSubdomain(sub)
	}
	return rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (storage.Scan, error) {
	var (
		scan      storage.Scan
		completed sql.NullTime
	)
	if err := row.Scan(&scan.ID, &scan.Target, &scan.StartedAt, &completed,
		&scan.ASNCount, &scan.DomainCount, &scan.SubdomainCount); err != nil {
		return storage.Scan{}, fmt.Errorf("scanning scan row: %w", err)
	}
	if completed.Valid {
		scan.CompletedAt = completed.Time
	}
	return scan, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
