package handler

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/syncer"
	"github.com/vfg2006/ads-dashboard-api/pkg/apiErrors"
)

// CampaignList serves an account's campaigns read-through: cache first,
// the engine's fetch-and-store path on a miss. The cache holds the
// unfiltered listing; status and objective filters apply after the read.
func CampaignList(engine *syncer.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := accountIDParam(r)
		if accountID == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "account ID is required", nil)
			return
		}

		limit := 0
		if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
			parsed, err := strconv.Atoi(rawLimit)
			if err != nil || parsed < 0 {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "limit must be a non-negative integer", nil)
				return
			}
			limit = parsed
		}

		list, cached, err := engine.ListCampaigns(r.Context(), accountID, limit)
		if err != nil {
			respondStorageError(w, err, "Error listing campaigns")
			return
		}

		list = filterCampaigns(list,
			r.URL.Query().Get("status"),
			r.URL.Query().Get("objective"),
		)

		respondJSON(w, http.StatusOK, domain.CampaignListResponse{
			Campaigns: list,
			Total:     len(list),
			Cached:    cached,
		})
	})
}

func GetCampaign(campaigns repository.CampaignRepository) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if id == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "campaign ID is required", nil)
			return
		}

		campaign, err := campaigns.GetByID(r.Context(), id)
		if err != nil {
			respondStorageError(w, err, "Error fetching campaign")
			return
		}
		if campaign == nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "campaign not found", nil)
			return
		}

		respondJSON(w, http.StatusOK, campaign)
	})
}

// accountIDParam reads the account ID from the route parameter or from
// the account_id query parameter; both route shapes are served.
func accountIDParam(r *http.Request) string {
	if id := httprouter.ParamsFromContext(r.Context()).ByName("id"); id != "" {
		return id
	}
	return r.URL.Query().Get("account_id")
}

// filterCampaigns matches against effective_status, the status a
// dashboard user actually experiences.
func filterCampaigns(campaigns []*domain.Campaign, status, objective string) []*domain.Campaign {
	if status == "" && objective == "" {
		return campaigns
	}

	filtered := make([]*domain.Campaign, 0, len(campaigns))
	for _, campaign := range campaigns {
		if status != "" && string(campaign.EffectiveStatus) != status {
			continue
		}
		if objective != "" && campaign.Objective != objective {
			continue
		}
		filtered = append(filtered, campaign)
	}

	return filtered
}
