package repository

//go:generate mockgen -destination=mocks/repository_mock.go -package=mocks github.com/vfg2006/ads-dashboard-api/infrastructure/repository AccountRepository,CampaignRepository,InsightRepository
