package strategy

import "github.com/alejandrodnm/kalshibot/internal/domain"

// Operator combines composite children.
type Operator string

const (
	OperatorAnd Operator = "and"
	OperatorOr  Operator = "or"
)

// CompositeParams holds the ordered children of a composite.
type CompositeParams struct {
	Operator Operator
	Children []Strategy
}

// NewComposite validates the operator (empty means and) and returns a
// composite over children, evaluated in order.
func NewComposite(name string, op Operator, children ...Strategy) (Strategy, error) {
	if op == "" {
		op = OperatorAnd
	}
	if op != OperatorAnd && op != OperatorOr {
		return Strategy{}, invalid(name, "operator must be 'and' or 'or', got %q", op)
	}
	p := &CompositeParams{
		Operator: op,
		Children: append([]Strategy(nil), children...),
	}
	return Strategy{Name: name, Kind: KindComposite, Composite: p}, nil
}

func (p *CompositeParams) evaluate(game domain.GameState, market domain.MarketState, pos *domain.Position) (domain.TradeSignal, bool) {
	var (
		first domain.TradeSignal
		found bool
	)

	for _, child := range p.Children {
		if child.Kind == KindTimeWindow {
			if !child.IsTimeValid(game) && p.Operator == OperatorAnd {
				return domain.TradeSignal{}, false
			}
			continue
		}

		sig, ok := child.Evaluate(game, market, pos)
		if !ok {
			if p.Operator == OperatorAnd {
				return domain.TradeSignal{}, false
			}
			continue
		}
		if !found {
			first, found = sig, true
		}
	}

	return first, found
}
