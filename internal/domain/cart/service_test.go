package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastline/backoffice/internal/domain/catalog"
)

// --- Mock implementations ---

type mockStore struct {
	lines  []Line
	nextID int64
}

func sameItem(l Line, ref ItemRef) bool {
	if l.Flavor != ref.Flavor {
		return false
	}
	if ref.DishID != nil {
		return l.DishID != nil && *l.DishID == *ref.DishID
	}
	return l.ComboID != nil && *l.ComboID == *ref.ComboID
}

func (m *mockStore) FindLines(_ context.Context, userID int64, ref ItemRef) ([]Line, error) {
	var out []Line
	for _, l := range m.lines {
		if l.UserID == userID && sameItem(l, ref) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockStore) ListByUser(_ context.Context, userID int64) ([]Line, error) {
	var out []Line
	for _, l := range m.lines {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockStore) InsertLine(_ context.Context, line *Line) error {
	// Upsert semantics of the real store: a conflicting insert increments.
	for i := range m.lines {
		if m.lines[i].UserID == line.UserID && sameItem(m.lines[i], ItemRef{DishID: line.DishID, ComboID: line.ComboID, Flavor: line.Flavor}) {
			m.lines[i].Number++
			return nil
		}
	}
	m.nextID++
	line.ID = m.nextID
	m.lines = append(m.lines, *line)
	return nil
}

func (m *mockStore) UpdateQuantity(_ context.Context, lineID int64, number int) error {
	for i := range m.lines {
		if m.lines[i].ID == lineID {
			m.lines[i].Number = number
			return nil
		}
	}
	return nil
}

func (m *mockStore) DeleteLine(_ context.Context, lineID int64) error {
	for i := range m.lines {
		if m.lines[i].ID == lineID {
			m.lines = append(m.lines[:i], m.lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockStore) DeleteByUser(_ context.Context, userID int64) error {
	kept := m.lines[:0]
	for _, l := range m.lines {
		if l.UserID != userID {
			kept = append(kept, l)
		}
	}
	m.lines = kept
	return nil
}

type mockCatalog struct {
	dishes map[int64]*catalog.Dish
	combos map[int64]*catalog.Combo
}

func (m *mockCatalog) Dish(_ context.Context, id int64) (*catalog.Dish, error) {
	d, ok := m.dishes[id]
	if !ok {
		return nil, catalog.ErrDishNotFound
	}
	return d, nil
}

func (m *mockCatalog) Combo(_ context.Context, id int64) (*catalog.Combo, error) {
	c, ok := m.combos[id]
	if !ok {
		return nil, catalog.ErrComboNotFound
	}
	return c, nil
}

// --- Helpers ---

func ptr(v int64) *int64 { return &v }

func newTestService() (*Service, *mockStore) {
	store := &mockStore{}
	cat := &mockCatalog{
		dishes: map[int64]*catalog.Dish{
			5: {ID: 5, Name: "Kung Pao Chicken", Image: "kpc.png", Price: decimal.RequireFromString("18.00")},
		},
		combos: map[int64]*catalog.Combo{
			7: {ID: 7, Name: "Lunch Set", Image: "set.png", Price: decimal.RequireFromString("25.00")},
		},
	}
	svc := NewService(store, cat)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

// --- Tests ---

func TestAdd_NewLineFromCatalog(t *testing.T) {
	svc, store := newTestService()

	err := svc.Add(context.Background(), 1, ItemRef{DishID: ptr(5)})

	require.NoError(t, err)
	require.Len(t, store.lines, 1)
	line := store.lines[0]
	assert.Equal(t, "Kung Pao Chicken", line.Name)
	assert.Equal(t, "kpc.png", line.Image)
	assert.True(t, decimal.RequireFromString("18.00").Equal(line.Amount))
	assert.Equal(t, 1, line.Number)
	assert.False(t, line.CreateTime.IsZero())
}

func TestAdd_TwiceIncrementsSingleLine(t *testing.T) {
	svc, store := newTestService()
	user := int64(1)

	require.NoError(t, svc.Add(context.Background(), user, ItemRef{DishID: ptr(5)}))
	require.NoError(t, svc.Add(context.Background(), user, ItemRef{DishID: ptr(5)}))

	require.Len(t, store.lines, 1)
	assert.Equal(t, 2, store.lines[0].Number)
}

func TestAdd_FrozenPriceSurvivesCatalogEdit(t *testing.T) {
	svc, store := newTestService()
	cat := svc.catalog.(*mockCatalog)

	require.NoError(t, svc.Add(context.Background(), 1, ItemRef{DishID: ptr(5)}))
	cat.dishes[5].Price = decimal.RequireFromString("99.00")
	require.NoError(t, svc.Add(context.Background(), 1, ItemRef{DishID: ptr(5)}))

	require.Len(t, store.lines, 1)
	assert.True(t, decimal.RequireFromString("18.00").Equal(store.lines[0].Amount))
}

func TestAdd_ComboLine(t *testing.T) {
	svc, store := newTestService()

	require.NoError(t, svc.Add(context.Background(), 1, ItemRef{ComboID: ptr(7)}))

	require.Len(t, store.lines, 1)
	assert.Equal(t, "Lunch Set", store.lines[0].Name)
}

func TestAdd_FlavorIsPartOfIdentity(t *testing.T) {
	svc, store := newTestService()

	require.NoError(t, svc.Add(context.Background(), 1, ItemRef{DishID: ptr(5), Flavor: "mild"}))
	require.NoError(t, svc.Add(context.Background(), 1, ItemRef{DishID: ptr(5), Flavor: "hot"}))

	assert.Len(t, store.lines, 2)
}

func TestAdd_ScopedToUser(t *testing.T) {
	svc, store := newTestService()

	require.NoError(t, svc.Add(context.Background(), 1, ItemRef{DishID: ptr(5)}))
	require.NoError(t, svc.Add(context.Background(), 2, ItemRef{DishID: ptr(5)}))

	assert.Len(t, store.lines, 2)
}

func TestAdd_UnknownDish(t *testing.T) {
	svc, store := newTestService()

	err := svc.Add(context.Background(), 1, ItemRef{DishID: ptr(404)})

	require.ErrorIs(t, err, ErrUnknownItem)
	assert.Empty(t, store.lines)
}

func TestAdd_RejectsAmbiguousRef(t *testing.T) {
	svc, _ := newTestService()

	require.ErrorIs(t, svc.Add(context.Background(), 1, ItemRef{}), ErrNoItem)
	require.ErrorIs(t, svc.Add(context.Background(), 1, ItemRef{DishID: ptr(5), ComboID: ptr(7)}), ErrNoItem)
}

func TestRemove_DecrementsThenDeletes(t *testing.T) {
	svc, store := newTestService()
	ref := ItemRef{DishID: ptr(5)}

	require.NoError(t, svc.Add(context.Background(), 1, ref))
	require.NoError(t, svc.Add(context.Background(), 1, ref))

	require.NoError(t, svc.Remove(context.Background(), 1, ref))
	require.Len(t, store.lines, 1)
	assert.Equal(t, 1, store.lines[0].Number)

	require.NoError(t, svc.Remove(context.Background(), 1, ref))
	assert.Empty(t, store.lines)
}

func TestRemove_MissingLineIsNoop(t *testing.T) {
	svc, _ := newTestService()
	require.NoError(t, svc.Remove(context.Background(), 1, ItemRef{DishID: ptr(5)}))
}

func TestClear_Idempotent(t *testing.T) {
	svc, store := newTestService()

	require.NoError(t, svc.Add(context.Background(), 1, ItemRef{DishID: ptr(5)}))
	require.NoError(t, svc.Add(context.Background(), 2, ItemRef{ComboID: ptr(7)}))

	require.NoError(t, svc.Clear(context.Background(), 1))
	require.NoError(t, svc.Clear(context.Background(), 1))

	lines, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, lines)

	other, err := svc.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, other, 1)

	require.Len(t, store.lines, 1)
	assert.Equal(t, int64(2), store.lines[0].UserID)
}
