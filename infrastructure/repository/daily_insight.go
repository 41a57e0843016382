package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
)

const dailyInsightsTable = "daily_insights"

const dailyInsightColumns = "entity_type, entity_id, entity_name, account_id, " +
	"date_start, date_stop, spend, impressions, clicks, reach, frequency, ctr, " +
	"cpc, cpm, cpp, actions, action_values, conversions, cost_per_action_type, " +
	"video, last_sync_at"

// InsightFilters narrows a stored-insights read.
type InsightFilters struct {
	AccountID  string
	EntityType domain.EntityType
	EntityID   string
	DateStart  time.Time
	DateEnd    time.Time
	Limit      int
}

type InsightRepository interface {
	Query(ctx context.Context, filters InsightFilters) ([]*domain.DailyInsight, error)
	SaveOrUpdate(ctx context.Context, insight *domain.DailyInsight) error
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

type insightRepository struct {
	conn *postgres.Connection
}

func NewInsightRepository(conn *postgres.Connection) InsightRepository {
	return &insightRepository{
		conn: conn,
	}
}

func (r *insightRepository) Query(ctx context.Context, filters InsightFilters) ([]*domain.DailyInsight, error) {
	queryBuilder := squirrel.
		Select(dailyInsightColumns).
		From(dailyInsightsTable).
		OrderBy("date_start ASC").
		PlaceholderFormat(squirrel.Dollar)

	if filters.AccountID != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"account_id": filters.AccountID})
	}
	if filters.EntityType != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"entity_type": filters.EntityType})
	}
	if filters.EntityID != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"entity_id": filters.EntityID})
	}
	if !filters.DateStart.IsZero() {
		queryBuilder = queryBuilder.Where(squirrel.GtOrEq{"date_start": filters.DateStart.Format(time.DateOnly)})
	}
	if !filters.DateEnd.IsZero() {
		queryBuilder = queryBuilder.Where(squirrel.LtOrEq{"date_stop": filters.DateEnd.Format(time.DateOnly)})
	}
	if filters.Limit > 0 {
		queryBuilder = queryBuilder.Limit(uint64(filters.Limit))
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, storageErr("insight.Query", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("insight.Query", err)
	}
	defer rows.Close()

	insights := make([]*domain.DailyInsight, 0)
	for rows.Next() {
		insight, err := scanInsight(rows)
		if err != nil {
			return nil, storageErr("insight.Query", err)
		}
		insights = append(insights, insight)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("insight.Query", err)
	}

	return insights, nil
}

// SaveOrUpdate upserts one row by the composite identity
// (entity_type, entity_id, date_start, date_stop), so overlapping sync
// windows can safely re-apply the same rows.
func (r *insightRepository) SaveOrUpdate(ctx context.Context, insight *domain.DailyInsight) error {
	actionsJSON, err := marshalActionMap(insight.Actions)
	if err != nil {
		return storageErr("insight.SaveOrUpdate", err)
	}
	actionValuesJSON, err := marshalActionMap(insight.ActionValues)
	if err != nil {
		return storageErr("insight.SaveOrUpdate", err)
	}
	conversionsJSON, err := marshalActionMap(insight.Conversions)
	if err != nil {
		return storageErr("insight.SaveOrUpdate", err)
	}
	costPerActionJSON, err := marshalActionMap(insight.CostPerActionType)
	if err != nil {
		return storageErr("insight.SaveOrUpdate", err)
	}

	var videoJSON []byte
	if insight.Video != nil {
		videoJSON, err = json.Marshal(insight.Video)
		if err != nil {
			return storageErr("insight.SaveOrUpdate", errors.Wrap(err, "serializing video metrics"))
		}
	}

	query, args, err := squirrel.StatementBuilder.
		Insert(dailyInsightsTable).
		Columns(
			"entity_type", "entity_id", "entity_name", "account_id",
			"date_start", "date_stop",
			"spend", "impressions", "clicks", "reach",
			"frequency", "ctr", "cpc", "cpm", "cpp",
			"actions", "action_values", "conversions", "cost_per_action_type",
			"video", "last_sync_at",
		).
		Values(
			insight.EntityType,
			insight.EntityID,
			insight.EntityName,
			insight.AccountID,
			insight.DateStart.Format(time.DateOnly),
			insight.DateStop.Format(time.DateOnly),
			insight.Spend,
			insight.Impressions,
			insight.Clicks,
			insight.Reach,
			insight.Frequency,
			insight.CTR,
			insight.CPC,
			insight.CPM,
			insight.CPP,
			actionsJSON,
			actionValuesJSON,
			conversionsJSON,
			costPerActionJSON,
			videoJSON,
			insight.LastSyncAt,
		).
		Suffix(`
			ON CONFLICT (entity_type, entity_id, date_start, date_stop) DO UPDATE SET
				entity_name = EXCLUDED.entity_name,
				account_id = EXCLUDED.account_id,
				spend = EXCLUDED.spend,
				impressions = EXCLUDED.impressions,
				clicks = EXCLUDED.clicks,
				reach = EXCLUDED.reach,
				frequency = EXCLUDED.frequency,
				ctr = EXCLUDED.ctr,
				cpc = EXCLUDED.cpc,
				cpm = EXCLUDED.cpm,
				cpp = EXCLUDED.cpp,
				actions = EXCLUDED.actions,
				action_values = EXCLUDED.action_values,
				conversions = EXCLUDED.conversions,
				cost_per_action_type = EXCLUDED.cost_per_action_type,
				video = EXCLUDED.video,
				last_sync_at = EXCLUDED.last_sync_at
		`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return storageErr("insight.SaveOrUpdate", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return storageErr("insight.SaveOrUpdate", err)
	}

	return nil
}

// DeleteOlderThan prunes rows older than the given number of days.
// Retention is operator-triggered; nothing schedules this by default.
func (r *insightRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days).Format(time.DateOnly)

	query, args, err := squirrel.
		Delete(dailyInsightsTable).
		Where(squirrel.Lt{"date_start": cutoffDate}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, storageErr("insight.DeleteOlderThan", err)
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storageErr("insight.DeleteOlderThan", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, storageErr("insight.DeleteOlderThan", err)
	}

	return rowsAffected, nil
}

func marshalActionMap(m domain.ActionMap) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "serializing action map")
	}
	return data, nil
}

func scanInsight(row rowScanner) (*domain.DailyInsight, error) {
	insight := &domain.DailyInsight{}
	var actionsJSON, actionValuesJSON, conversionsJSON, costPerActionJSON, videoJSON []byte

	if err := row.Scan(
		&insight.EntityType,
		&insight.EntityID,
		&insight.EntityName,
		&insight.AccountID,
		&insight.DateStart,
		&insight.DateStop,
		&insight.Spend,
		&insight.Impressions,
		&insight.Clicks,
		&insight.Reach,
		&insight.Frequency,
		&insight.CTR,
		&insight.CPC,
		&insight.CPM,
		&insight.CPP,
		&actionsJSON,
		&actionValuesJSON,
		&conversionsJSON,
		&costPerActionJSON,
		&videoJSON,
		&insight.LastSyncAt,
	); err != nil {
		return nil, err
	}

	for _, pair := range []struct {
		data   []byte
		target *domain.ActionMap
	}{
		{actionsJSON, &insight.Actions},
		{actionValuesJSON, &insight.ActionValues},
		{conversionsJSON, &insight.Conversions},
		{costPerActionJSON, &insight.CostPerActionType},
	} {
		if len(pair.data) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.data, pair.target); err != nil {
			return nil, errors.Wrap(err, "deserializing action map")
		}
	}

	if len(videoJSON) > 0 {
		video := &domain.VideoMetrics{}
		if err := json.Unmarshal(videoJSON, video); err != nil {
			return nil, errors.Wrap(err, "deserializing video metrics")
		}
		insight.Video = video
	}

	return insight, nil
}
