package ledger

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// DefaultLowStockRule flags empty rows and rows under their limit.
const DefaultLowStockRule = "quantity <= 0.0 || (hasLimit && quantity < limit)"

// LowStockRule is a compiled CEL predicate over quantity, limit and hasLimit.
type LowStockRule struct {
	expr string
	prg  cel.Program
}

// NewLowStockRule compiles expr. An empty expr selects DefaultLowStockRule.
func NewLowStockRule(expr string) (*LowStockRule, error) {
	if expr == "" {
		expr = DefaultLowStockRule
	}
	env, err := cel.NewEnv(
		cel.Variable("quantity", cel.DoubleType),
		cel.Variable("limit", cel.DoubleType),
		cel.Variable("hasLimit", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile low stock rule: %w", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("low stock rule must return bool, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build low stock rule: %w", err)
	}
	return &LowStockRule{expr: expr, prg: prg}, nil
}

// MustLowStockRule is NewLowStockRule that panics. Use only for constants.
func MustLowStockRule(expr string) *LowStockRule {
	r, err := NewLowStockRule(expr)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the source expression.
func (r *LowStockRule) String() string { return r.expr }

// Matches evaluates the rule for one ledger row.
func (r *LowStockRule) Matches(item StockItem) (bool, error) {
	vars := map[string]any{
		"quantity": item.Quantity.Float64(),
		"limit":    0.0,
		"hasLimit": item.LimitQty != nil,
	}
	if item.LimitQty != nil {
		vars["limit"] = item.LimitQty.Float64()
	}
	out, _, err := r.prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate low stock rule: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("low stock rule returned %T", out.Value())
	}
	return b, nil
}
