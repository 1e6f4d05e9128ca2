package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
	"github.com/NeuralTrust/BotGate/pkg/domain/policy"
	"github.com/NeuralTrust/BotGate/pkg/infra/database/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type decisionModel struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TraceID        string           `gorm:"column:trace_id"`
	IP             string           `gorm:"column:ip"`
	UserAgentHash  string           `gorm:"column:user_agent_hash"`
	UserAgent      string           `gorm:"column:user_agent"`
	Browser        string           `gorm:"column:browser"`
	OS             string           `gorm:"column:os"`
	Device         string           `gorm:"column:device"`
	Method         string           `gorm:"column:method"`
	Path           string           `gorm:"column:path"`
	IsBot          bool             `gorm:"column:is_bot"`
	Confidence     int              `gorm:"column:confidence"`
	Category       string           `gorm:"column:category"`
	Authorized     bool             `gorm:"column:authorized"`
	Reasons        types.StringList `gorm:"column:reasons;type:text[]"`
	Action         string           `gorm:"column:action"`
	IntendedAction string           `gorm:"column:intended_action"`
	DecisionReason string           `gorm:"column:decision_reason"`
	RedirectTarget string           `gorm:"column:redirect_target"`
	CreatedAt      time.Time        `gorm:"column:created_at"`
}

func (decisionModel) TableName() string {
	return "bot_decisions"
}

type decisionRepository struct {
	db *gorm.DB
}

func NewDecisionRepository(db *gorm.DB) audit.Repository {
	return &decisionRepository{db: db}
}

func (r *decisionRepository) Save(ctx context.Context, record *audit.Record) error {
	m, err := toModel(record)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

func (r *decisionRepository) List(ctx context.Context, filter audit.Filter) ([]*audit.Record, error) {
	var rows []decisionModel
	if err := r.query(ctx, filter).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	out := make([]*audit.Record, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (r *decisionRepository) query(ctx context.Context, filter audit.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&decisionModel{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.IP != "" {
		q = q.Where("ip = ?", filter.IP)
	}
	return q.Order("created_at DESC").Limit(filter.EffectiveLimit())
}

func toModel(r *audit.Record) (*decisionModel, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid record id %q: %w", r.ID, err)
	}
	m := &decisionModel{
		ID:             id,
		TraceID:        r.TraceID,
		IP:             r.Identity.IP,
		UserAgentHash:  r.Identity.UserAgentHash,
		UserAgent:      r.UserAgent,
		Method:         r.Method,
		Path:           r.Path,
		IsBot:          r.Verdict.IsBot,
		Confidence:     r.Verdict.Confidence,
		Category:       r.Verdict.Category.String(),
		Authorized:     r.Verdict.Authorized,
		Reasons:        types.StringList(r.Verdict.Reasons),
		Action:         string(r.Decision.Action),
		IntendedAction: string(r.Decision.Intended),
		DecisionReason: r.Decision.Reason,
		RedirectTarget: r.Decision.RedirectTarget,
		CreatedAt:      r.Timestamp.UTC(),
	}
	if r.UAInfo != nil {
		m.Browser = r.UAInfo.Browser
		m.OS = r.UAInfo.OS
		m.Device = r.UAInfo.Device
	}
	return m, nil
}

func fromModel(m *decisionModel) *audit.Record {
	r := &audit.Record{
		ID:      m.ID.String(),
		TraceID: m.TraceID,
		Identity: audit.Identity{
			IP:            m.IP,
			UserAgentHash: m.UserAgentHash,
		},
		UserAgent: m.UserAgent,
		Method:    m.Method,
		Path:      m.Path,
		Verdict: classification.Verdict{
			IsBot:      m.IsBot,
			Confidence: m.Confidence,
			Category:   classification.Category(m.Category),
			Authorized: m.Authorized,
			Reasons:    []string(m.Reasons),
		},
		Decision: policy.Decision{
			Action:         policy.Action(m.Action),
			Intended:       policy.Action(m.IntendedAction),
			Reason:         m.DecisionReason,
			RedirectTarget: m.RedirectTarget,
		},
		Timestamp: m.CreatedAt,
	}
	if m.Browser != "" || m.OS != "" || m.Device != "" {
		r.UAInfo = &audit.UserAgentInfo{Browser: m.Browser, OS: m.OS, Device: m.Device}
	}
	return r
}
