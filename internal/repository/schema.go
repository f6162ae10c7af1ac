package repository

import "fmt"

const (
	snapshotTable = "analysis_snapshots"
	overrideTable = "overrides"
)

// Schema returns the idempotent DDL for database, in execution order.
// Snapshots replace each other per date; the newest version wins at merge
// time and under FINAL.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    date       Date,
    data       String,
    updated_at DateTime64(3, 'UTC'),
    version    UInt64
) ENGINE = ReplacingMergeTree(version)
ORDER BY date`, database, snapshotTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    id               String,
    ts               DateTime64(3, 'UTC'),
    type             LowCardinality(String),
    currency_code    LowCardinality(String),
    indicator        String,
    original_value   String,
    overridden_value String,
    justification    String
) ENGINE = MergeTree
ORDER BY (ts, id)`, database, overrideTable),
	}
}
