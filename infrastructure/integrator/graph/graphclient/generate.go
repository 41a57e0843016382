package graphclient

//go:generate mockgen -destination=mocks/client_mock.go -package=mocks github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/graphclient Client
