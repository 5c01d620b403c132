package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/models"
)

func TestDefault(t *testing.T) {
	cat := Default()

	plans := cat.List()
	require.Len(t, plans, 4)

	expected := []struct {
		id    string
		price int64
		days  int
	}{
		{"1month", 50000, 30},
		{"3months", 120000, 90},
		{"6months", 200000, 180},
		{"1year", 350000, 365},
	}
	for i, e := range expected {
		assert.Equal(t, e.id, plans[i].ID)
		assert.Equal(t, e.price, plans[i].Price)
		assert.Equal(t, e.days, plans[i].Days)
		assert.NotEmpty(t, plans[i].Name)
	}
}

func TestFind(t *testing.T) {
	cat := Default()

	plan, ok := cat.Find("6months")
	require.True(t, ok)
	assert.Equal(t, int64(200000), plan.Price)

	_, ok = cat.Find("lifetime")
	assert.False(t, ok)

	_, ok = cat.Find("")
	assert.False(t, ok)
}

func TestListReturnsCopy(t *testing.T) {
	cat := Default()

	plans := cat.List()
	plans[0] = models.Plan{ID: "mutated"}

	// мутация результата не должна затрагивать каталог
	fresh := cat.List()
	assert.Equal(t, "1month", fresh[0].ID)
}

func TestNewPreservesOrder(t *testing.T) {
	cat := New([]models.Plan{
		{ID: "b", Name: "B", Price: 2, Days: 2},
		{ID: "a", Name: "A", Price: 1, Days: 1},
	})

	plans := cat.List()
	require.Len(t, plans, 2)
	assert.Equal(t, "b", plans[0].ID)
	assert.Equal(t, "a", plans[1].ID)
}
