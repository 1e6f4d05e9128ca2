package audit

import "context"

// Filter narrows a decision log query. Zero values mean "any".
type Filter struct {
	Category string
	Action   string
	IP       string
	Limit    int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

func (f Filter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultListLimit
	case f.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return f.Limit
	}
}

type Repository interface {
	Save(ctx context.Context, record *Record) error
	List(ctx context.Context, filter Filter) ([]*Record, error)
}
