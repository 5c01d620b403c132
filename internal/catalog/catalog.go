// Package catalog содержит статический каталог тарифов.
// Каталог конструируется один раз при старте и передаётся
// в бизнес-логику как неизменяемый объект.
package catalog

import "github.com/magabrotheeeer/vpn-shop-bot/internal/models"

// Catalog хранит упорядоченный список тарифов и индекс по ID.
type Catalog struct {
	plans []models.Plan
	byID  map[string]models.Plan
}

// New создаёт каталог из переданного списка тарифов.
func New(plans []models.Plan) *Catalog {
	byID := make(map[string]models.Plan, len(plans))
	for _, p := range plans {
		byID[p.ID] = p
	}
	return &Catalog{plans: plans, byID: byID}
}

// Default возвращает каталог с фиксированным набором тарифов магазина.
func Default() *Catalog {
	return New([]models.Plan{
		{ID: "1month", Name: "1 месяц", Price: 50000, Days: 30},
		{ID: "3months", Name: "3 месяца", Price: 120000, Days: 90},
		{ID: "6months", Name: "6 месяцев", Price: 200000, Days: 180},
		{ID: "1year", Name: "1 год", Price: 350000, Days: 365},
	})
}

// List возвращает тарифы в порядке объявления.
func (c *Catalog) List() []models.Plan {
	result := make([]models.Plan, len(c.plans))
	copy(result, c.plans)
	return result
}

// Find возвращает тариф по идентификатору.
func (c *Catalog) Find(id string) (models.Plan, bool) {
	p, ok := c.byID[id]
	return p, ok
}
