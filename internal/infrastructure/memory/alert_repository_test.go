package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uld-tracker/internal/domain/alert"
)

func TestAlertRepository_KeepsNewestHundred(t *testing.T) {
	repo := NewAlertRepository(DefaultAlertCapacity)

	for i := 0; i < 150; i++ {
		repo.Add(alert.Alert{ID: fmt.Sprintf("A%03d", i)})
	}

	require.Equal(t, 100, repo.Len())
	recent := repo.Recent(0)
	require.Len(t, recent, 100)

	assert.Equal(t, "A149", recent[0].ID)
	assert.Equal(t, "A050", recent[99].ID)
	for i := 1; i < len(recent); i++ {
		assert.Greater(t, recent[i-1].ID, recent[i].ID)
	}
}

func TestAlertRepository_RecentLimit(t *testing.T) {
	repo := NewAlertRepository(5)
	assert.Empty(t, repo.Recent(3))

	for i := 0; i < 3; i++ {
		repo.Add(alert.Alert{ID: fmt.Sprintf("A%d", i)})
	}

	got := repo.Recent(2)
	require.Len(t, got, 2)
	assert.Equal(t, "A2", got[0].ID)
	assert.Equal(t, "A1", got[1].ID)

	assert.Len(t, repo.Recent(50), 3)
	assert.Equal(t, 5, repo.Capacity())
}

func TestNewAlertRepository_DefaultsCapacity(t *testing.T) {
	assert.Equal(t, DefaultAlertCapacity, NewAlertRepository(0).Capacity())
}
