package health

import "context"

// ReadinessChecker проверяет готовность зависимостей к обслуживанию запросов.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}
