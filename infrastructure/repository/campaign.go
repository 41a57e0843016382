package repository

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
)

const campaignsTable = "campaigns"

const campaignColumns = "id, account_id, name, objective, status, configured_status, " +
	"effective_status, daily_budget, lifetime_budget, budget_remaining, bid_strategy, " +
	"optimization_goal, spend_cap, start_time, stop_time, issues, created_time, " +
	"updated_time, last_sync_at"

type CampaignRepository interface {
	GetByID(ctx context.Context, campaignID string) (*domain.Campaign, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Campaign, error)
	SaveOrUpdate(ctx context.Context, campaign *domain.Campaign) error
}

type campaignRepository struct {
	conn *postgres.Connection
}

func NewCampaignRepository(conn *postgres.Connection) CampaignRepository {
	return &campaignRepository{
		conn: conn,
	}
}

func (r *campaignRepository) GetByID(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	query, args, err := squirrel.
		Select(campaignColumns).
		From(campaignsTable).
		Where(squirrel.Eq{"id": campaignID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, storageErr("campaign.GetByID", err)
	}

	row := r.conn.QueryRowContext(ctx, query, args...)

	campaign, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, storageErr("campaign.GetByID", err)
	}

	return campaign, nil
}

func (r *campaignRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Campaign, error) {
	queryBuilder := squirrel.
		Select(campaignColumns).
		From(campaignsTable).
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("name ASC").
		PlaceholderFormat(squirrel.Dollar)

	if limit > 0 {
		queryBuilder = queryBuilder.Limit(uint64(limit))
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, storageErr("campaign.ListByAccount", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("campaign.ListByAccount", err)
	}
	defer rows.Close()

	campaigns := make([]*domain.Campaign, 0)
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, storageErr("campaign.ListByAccount", err)
		}
		campaigns = append(campaigns, campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("campaign.ListByAccount", err)
	}

	return campaigns, nil
}

// SaveOrUpdate upserts one campaign by its upstream ID. All three status
// fields are stored as reported; last_sync_at is the local write time.
func (r *campaignRepository) SaveOrUpdate(ctx context.Context, campaign *domain.Campaign) error {
	query, args, err := squirrel.StatementBuilder.
		Insert(campaignsTable).
		Columns(
			"id", "account_id", "name", "objective",
			"status", "configured_status", "effective_status",
			"daily_budget", "lifetime_budget", "budget_remaining",
			"bid_strategy", "optimization_goal", "spend_cap",
			"start_time", "stop_time", "issues",
			"created_time", "updated_time", "last_sync_at",
		).
		Values(
			campaign.ID,
			campaign.AccountID,
			campaign.Name,
			campaign.Objective,
			campaign.Status,
			campaign.ConfiguredStatus,
			campaign.EffectiveStatus,
			campaign.DailyBudget,
			campaign.LifetimeBudget,
			campaign.BudgetRemaining,
			campaign.BidStrategy,
			campaign.OptimizationGoal,
			campaign.SpendCap,
			campaign.StartTime,
			campaign.StopTime,
			[]byte(campaign.Issues),
			campaign.CreatedTime,
			campaign.UpdatedTime,
			campaign.LastSyncAt,
		).
		Suffix(`
			ON CONFLICT (id) DO UPDATE SET
				account_id = EXCLUDED.account_id,
				name = EXCLUDED.name,
				objective = EXCLUDED.objective,
				status = EXCLUDED.status,
				configured_status = EXCLUDED.configured_status,
				effective_status = EXCLUDED.effective_status,
				daily_budget = EXCLUDED.daily_budget,
				lifetime_budget = EXCLUDED.lifetime_budget,
				budget_remaining = EXCLUDED.budget_remaining,
				bid_strategy = EXCLUDED.bid_strategy,
				optimization_goal = EXCLUDED.optimization_goal,
				spend_cap = EXCLUDED.spend_cap,
				start_time = EXCLUDED.start_time,
				stop_time = EXCLUDED.stop_time,
				issues = EXCLUDED.issues,
				created_time = EXCLUDED.created_time,
				updated_time = EXCLUDED.updated_time,
				last_sync_at = EXCLUDED.last_sync_at
		`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return storageErr("campaign.SaveOrUpdate", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return storageErr("campaign.SaveOrUpdate", err)
	}

	return nil
}

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	campaign := &domain.Campaign{}
	var dailyBudget, lifetimeBudget, budgetRemaining, spendCap sql.NullFloat64
	var bidStrategy, optimizationGoal sql.NullString
	var startTime, stopTime, createdTime, updatedTime, lastSyncAt sql.NullTime
	var issuesJSON []byte

	if err := row.Scan(
		&campaign.ID,
		&campaign.AccountID,
		&campaign.Name,
		&campaign.Objective,
		&campaign.Status,
		&campaign.ConfiguredStatus,
		&campaign.EffectiveStatus,
		&dailyBudget,
		&lifetimeBudget,
		&budgetRemaining,
		&bidStrategy,
		&optimizationGoal,
		&spendCap,
		&startTime,
		&stopTime,
		&issuesJSON,
		&createdTime,
		&updatedTime,
		&lastSyncAt,
	); err != nil {
		return nil, err
	}

	if dailyBudget.Valid {
		campaign.DailyBudget = &dailyBudget.Float64
	}
	if lifetimeBudget.Valid {
		campaign.LifetimeBudget = &lifetimeBudget.Float64
	}
	if budgetRemaining.Valid {
		campaign.BudgetRemaining = &budgetRemaining.Float64
	}
	if spendCap.Valid {
		campaign.SpendCap = &spendCap.Float64
	}
	if bidStrategy.Valid {
		campaign.BidStrategy = &bidStrategy.String
	}
	if optimizationGoal.Valid {
		campaign.OptimizationGoal = &optimizationGoal.String
	}
	if startTime.Valid {
		campaign.StartTime = &startTime.Time
	}
	if stopTime.Valid {
		campaign.StopTime = &stopTime.Time
	}
	if createdTime.Valid {
		campaign.CreatedTime = createdTime.Time
	}
	if updatedTime.Valid {
		campaign.UpdatedTime = updatedTime.Time
	}
	if lastSyncAt.Valid {
		campaign.LastSyncAt = lastSyncAt.Time
	}
	if len(issuesJSON) > 0 {
		campaign.Issues = issuesJSON
	}

	return campaign, nil
}
