package auditlogs

import (
	"context"

	"github.com/NeuralTrust/BotGate/pkg/domain/audit"
)

const PostgresSinkName = "postgres"

type PostgresSink struct {
	repo audit.Repository
}

func NewPostgresSink(repo audit.Repository) *PostgresSink {
	return &PostgresSink{repo: repo}
}

func (s *PostgresSink) Name() string {
	return PostgresSinkName
}

func (s *PostgresSink) Write(ctx context.Context, r *audit.Record) error {
	return s.repo.Save(ctx, r)
}

func (s *PostgresSink) Close() error {
	return nil
}
