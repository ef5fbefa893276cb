package autocreate

import "context"

type budgetKey struct{}

// WithBudget returns a context carrying the remaining recursion budget.
func WithBudget(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, budgetKey{}, n)
}

// BudgetFromContext returns the budget stored by WithBudget, or fallback
// when ctx carries none (a save that was not caused by auto-creation).
func BudgetFromContext(ctx context.Context, fallback int) int {
	if n, ok := ctx.Value(budgetKey{}).(int); ok {
		return n
	}
	return fallback
}
