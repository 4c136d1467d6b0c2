package sqlite

const schema = `
-- Scans table
CREATE TABLE IF NOT EXISTS scans (
    id TEXT PRIMARY KEY,
    target TEXT NOT NULL,
    started_at DATETIME NOT NULL,
    completed_at DATETIME,
    asn_count INTEGER NOT NULL DEFAULT 0,
    domain_count INTEGER NOT NULL DEFAULT 0,
    subdomain_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_scans_target ON scans(target);
CREATE INDEX IF NOT EXISTS idx_scans_started_at ON scans(started_at);

-- Autonomous systems per scan
CREATE TABLE IF NOT EXISTS asns (
    scan_id TEXT NOT NULL,
    number INTEGER NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    country TEXT NOT NULL DEFAULT '',
    data_source TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (scan_id, number),
    FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_asns_number ON asns(number);

-- Base domains per scan
CREATE TABLE IF NOT EXISTS domains (
    scan_id TEXT NOT NULL,
    name TEXT NOT NULL,
    registrar TEXT NOT NULL DEFAULT '',
    data_source TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (scan_id, name),
    FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
);

-- Subdomains under a base domain
CREATE TABLE IF NOT EXISTS subdomains (
    scan_id TEXT NOT NULL,
    domain_name TEXT NOT NULL,
    fqdn TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'discovered',
    resolved_ips TEXT NOT NULL DEFAULT '',
    data_source TEXT NOT NULL DEFAULT '',
    last_checked DATETIME,
    PRIMARY KEY (scan_id, fqdn),
    FOREIGN KEY (scan_id, domain_name) REFERENCES domains(scan_id, name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_subdomains_domain ON subdomains(scan_id, domain_name);
`
