package domain

import (
	"time"
)

// SyncScope identifies one class of fleet sync. Each scope has its own
// single-flight lock; different scopes may run concurrently.
type SyncScope string

const (
	SyncScopeAccounts  SyncScope = "accounts"
	SyncScopeCampaigns SyncScope = "campaigns"
	SyncScopeInsights  SyncScope = "insights"
	SyncScopeAccount   SyncScope = "account"
)

// ValidSyncScopes lists the values accepted by the sync endpoint.
var ValidSyncScopes = []SyncScope{
	SyncScopeAccounts,
	SyncScopeCampaigns,
	SyncScopeInsights,
	SyncScopeAccount,
}

// SyncResult aggregates one sync run. Success is true only when no
// per-entity error was recorded.
type SyncResult struct {
	RunID     string    `json:"run_id"`
	Success   bool      `json:"success"`
	Processed int       `json:"processed"`
	Errors    int       `json:"errors"`
	SyncType  SyncScope `json:"sync_type"`
	AccountID string    `json:"account_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrSyncAlreadyRunning is the rejection signal for a concurrent fleet
// sync request on a scope that is still running.
type ErrSyncAlreadyRunning struct {
	Scope SyncScope
}

func (e *ErrSyncAlreadyRunning) Error() string {
	return "sync already running for scope " + string(e.Scope)
}

type ScheduledJob struct {
	Name    string     `json:"name"`
	NextRun *time.Time `json:"next_run,omitempty"`
	LastRun *time.Time `json:"last_run,omitempty"`
}

type SyncStatus struct {
	Status             string                  `json:"status"`
	IsRunning          bool                    `json:"is_running"`
	RunningScopes      []SyncScope             `json:"running_scopes,omitempty"`
	LastRun            map[SyncScope]time.Time `json:"last_run,omitempty"`
	ScheduledJobs      []ScheduledJob          `json:"scheduled_jobs"`
	AvailableSyncTypes []SyncScope             `json:"available_sync_types"`
}
