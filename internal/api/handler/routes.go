package handler

import (
	"net/http"

	"github.com/vfg2006/ads-dashboard-api/infrastructure/cache"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/graphclient"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/ads-dashboard-api/internal/api/handler/router"
	"github.com/vfg2006/ads-dashboard-api/internal/realtime"
	"github.com/vfg2006/ads-dashboard-api/internal/scheduler"
	"github.com/vfg2006/ads-dashboard-api/internal/syncer"
	"github.com/vfg2006/ads-dashboard-api/internal/webhooks"
)

func Healthcheck(
	conn *postgres.Connection,
	domainCache *cache.DomainCache,
	client graphclient.Client,
	engine *syncer.Engine,
) []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(),
		},
		{
			Path:    "/v1/health",
			Method:  http.MethodGet,
			Handler: DetailedHealth(conn, domainCache, client, engine),
		},
	}
}

func AdAccounts(engine *syncer.Engine, accounts repository.AccountRepository) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/accounts",
			Method:  http.MethodGet,
			Handler: AdAccountList(engine),
		},
		{
			Path:    "/v1/accounts/:id",
			Method:  http.MethodGet,
			Handler: GetAdAccount(accounts),
		},
	}
}

func Campaigns(engine *syncer.Engine, campaigns repository.CampaignRepository) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/accounts/:id/campaigns",
			Method:  http.MethodGet,
			Handler: CampaignList(engine),
		},
		{
			Path:    "/v1/campaigns",
			Method:  http.MethodGet,
			Handler: CampaignList(engine),
		},
		{
			Path:    "/v1/campaigns/:id",
			Method:  http.MethodGet,
			Handler: GetCampaign(campaigns),
		},
	}
}

func Insights(engine *syncer.Engine, insights repository.InsightRepository) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/accounts/:id/insights",
			Method:  http.MethodGet,
			Handler: InsightList(engine),
		},
		{
			Path:    "/v1/insights",
			Method:  http.MethodGet,
			Handler: InsightList(engine),
		},
		{
			Path:    "/v1/insights/retention",
			Method:  http.MethodDelete,
			Handler: DeleteOldInsights(insights),
		},
	}
}

func Sync(engine *syncer.Engine, jobs *scheduler.SyncJobService) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/sync",
			Method:  http.MethodGet,
			Handler: GetSyncStatus(engine, jobs),
		},
		{
			Path:    "/v1/sync/status",
			Method:  http.MethodGet,
			Handler: GetSyncStatus(engine, jobs),
		},
		{
			Path:    "/v1/sync",
			Method:  http.MethodPost,
			Handler: TriggerSync(engine),
		},
	}
}

func Webhooks(processor *webhooks.Processor) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/webhooks",
			Method:  http.MethodGet,
			Handler: VerifyWebhook(processor),
		},
		{
			Path:    "/v1/webhooks",
			Method:  http.MethodPost,
			Handler: ReceiveWebhook(processor),
		},
	}
}

func Realtime(hub *realtime.Hub) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/realtime",
			Method:  http.MethodGet,
			Handler: hub.Handler(),
		},
	}
}
