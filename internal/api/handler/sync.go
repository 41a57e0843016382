package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/scheduler"
	"github.com/vfg2006/ads-dashboard-api/internal/syncer"
	"github.com/vfg2006/ads-dashboard-api/pkg/apiErrors"
)

type triggerSyncRequest struct {
	Type      string `json:"type"`
	AccountID string `json:"account_id,omitempty"`
	Days      int    `json:"days,omitempty"`
}

// GetSyncStatus merges the engine's live scope state with the
// scheduler's job timings.
func GetSyncStatus(engine *syncer.Engine, jobs *scheduler.SyncJobService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := engine.Status()
		if jobs != nil {
			status.ScheduledJobs = jobs.ScheduledJobs()
		}

		respondJSON(w, http.StatusOK, status)
	})
}

// TriggerSync runs one sync synchronously and returns its result. A
// scope already in flight answers 409 instead of queueing.
func TriggerSync(engine *syncer.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		request, err := parseTriggerRequest(r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error(), nil)
			return
		}

		scope := domain.SyncScope(request.Type)
		if !isValidScope(scope) {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest,
				"invalid sync type "+strconv.Quote(request.Type),
				map[string]any{"valid_types": domain.ValidSyncScopes})
			return
		}

		if scope == domain.SyncScopeAccount && request.AccountID == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData,
				"account_id is required for a single-account sync", nil)
			return
		}

		var result *domain.SyncResult
		switch scope {
		case domain.SyncScopeAccounts:
			result, err = engine.SyncAllAccounts(r.Context())
		case domain.SyncScopeCampaigns:
			result, err = engine.SyncAllCampaigns(r.Context())
		case domain.SyncScopeInsights:
			result, err = engine.SyncAllAccountsInsights(r.Context(), request.Days)
		case domain.SyncScopeAccount:
			result, err = engine.SyncSpecificAccount(r.Context(), request.AccountID)
		}

		if err != nil {
			var busy *domain.ErrSyncAlreadyRunning
			if errors.As(err, &busy) {
				apiErrors.WriteError(w, apiErrors.ErrSyncInProgress, busy.Error(), nil)
				return
			}

			logrus.WithError(err).WithField("sync_type", scope).Error("handler: sync failed")
			apiErrors.WriteError(w, apiErrors.ErrExternalService, "sync failed: "+err.Error(), nil)
			return
		}

		respondJSON(w, http.StatusOK, result)
	})
}

// parseTriggerRequest accepts the parameters as a JSON body or as query
// parameters; the body wins when both are present.
func parseTriggerRequest(r *http.Request) (*triggerSyncRequest, error) {
	request := &triggerSyncRequest{
		Type:      r.URL.Query().Get("type"),
		AccountID: r.URL.Query().Get("account_id"),
	}

	if rawDays := r.URL.Query().Get("days"); rawDays != "" {
		days, err := strconv.Atoi(rawDays)
		if err != nil || days < 0 {
			return nil, errInvalidParam("days must be a non-negative integer")
		}
		request.Days = days
	}

	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(request); err != nil {
			return nil, errInvalidParam("malformed request body: " + err.Error())
		}
	}

	if request.Type == "" {
		return nil, errInvalidParam("type is required")
	}
	if request.Days < 0 {
		return nil, errInvalidParam("days must be a non-negative integer")
	}

	return request, nil
}

func isValidScope(scope domain.SyncScope) bool {
	for _, valid := range domain.ValidSyncScopes {
		if scope == valid {
			return true
		}
	}
	return false
}
