package cache

import (
	"context"
	"time"
)

// ScopeStatus describes one cache scope in a status report.
type ScopeStatus struct {
	Count     int64  `json:"count"`
	IsValid   bool   `json:"is_valid"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RecordsStatus describes one table's record cache.
type RecordsStatus struct {
	TableID   string `json:"table_id"`
	Count     int64  `json:"count"`
	IsValid   bool   `json:"is_valid"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// StatusReport is the status(scope) result shape.
type StatusReport struct {
	Timestamp string          `json:"timestamp"`
	Solutions ScopeStatus     `json:"solutions"`
	Tables    ScopeStatus     `json:"tables"`
	Records   []RecordsStatus `json:"records"`
	Members   ScopeStatus     `json:"members"`
	Teams     ScopeStatus     `json:"teams"`
}

// Status reports counts, validity and latest expiry per scope.
func (m *Manager) Status(ctx context.Context) (*StatusReport, error) {
	report := &StatusReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Records:   []RecordsStatus{},
	}

	var err error
	if report.Solutions, err = m.scopeStatus(ctx, "cached_solutions"); err != nil {
		return nil, err
	}
	if report.Tables, err = m.scopeStatus(ctx, "cached_tables"); err != nil {
		return nil, err
	}
	if report.Members, err = m.scopeStatus(ctx, "cached_members"); err != nil {
		return nil, err
	}
	if report.Teams, err = m.scopeStatus(ctx, "cached_teams"); err != nil {
		return nil, err
	}

	tableIDs, err := m.store.RegistryTableIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, tableID := range tableIDs {
		entry, found, err := m.store.GetRegistryEntry(ctx, tableID)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		count, valid, latest, err := m.store.TableCounts(ctx, entry.TableName, "")
		if err != nil {
			return nil, err
		}
		status := RecordsStatus{TableID: tableID, Count: count, IsValid: valid}
		if valid {
			status.ExpiresAt = latest
		}
		report.Records = append(report.Records, status)
	}

	return report, nil
}

func (m *Manager) scopeStatus(ctx context.Context, tableName string) (ScopeStatus, error) {
	count, valid, latest, err := m.store.TableCounts(ctx, tableName, "")
	if err != nil {
		return ScopeStatus{}, err
	}
	status := ScopeStatus{Count: count, IsValid: valid}
	if valid {
		status.ExpiresAt = latest
	}
	return status, nil
}
