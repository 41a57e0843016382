package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/syncer"
	"github.com/vfg2006/ads-dashboard-api/pkg/apiErrors"
)

// AdAccountList serves the account listing read-through: cache first,
// the engine's fetch-and-store path on a miss. Status filtering happens
// after the read so the cache holds one canonical entry for the whole
// fleet.
func AdAccountList(engine *syncer.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		statuses, err := parseStatusFilter(r.URL.Query().Get("status"))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "status must be a comma-separated list of integers", nil)
			return
		}

		list, cached, err := engine.ListAccounts(r.Context())
		if err != nil {
			respondStorageError(w, err, "Error listing ad accounts")
			return
		}

		list = filterAccountsByStatus(list, statuses)

		respondJSON(w, http.StatusOK, domain.AdAccountListResponse{
			Accounts: list,
			Total:    len(list),
			Cached:   cached,
		})
	})
}

func GetAdAccount(accounts repository.AccountRepository) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if id == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "account ID is required", nil)
			return
		}

		account, err := accounts.GetByID(r.Context(), id)
		if err != nil {
			respondStorageError(w, err, "Error fetching ad account")
			return
		}
		if account == nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "account not found", nil)
			return
		}

		respondJSON(w, http.StatusOK, account)
	})
}

func parseStatusFilter(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	statuses := make([]int, 0, len(parts))
	for _, part := range parts {
		status, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

func filterAccountsByStatus(accounts []*domain.AdAccount, statuses []int) []*domain.AdAccount {
	if len(statuses) == 0 {
		return accounts
	}

	filtered := make([]*domain.AdAccount, 0, len(accounts))
	for _, account := range accounts {
		for _, status := range statuses {
			if account.Status == status {
				filtered = append(filtered, account)
				break
			}
		}
	}

	return filtered
}
