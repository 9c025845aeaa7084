package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHoldRemoveKeepsOrder(t *testing.T) {
	h := &Hold{SeatIDs: []uint64{4, 1, 9, 2}}
	h.Remove([]uint64{1, 2})
	assert.Equal(t, []uint64{4, 9}, h.SeatIDs)
}

func TestHoldRemoveUnknownSeat(t *testing.T) {
	h := &Hold{SeatIDs: []uint64{4}}
	h.Remove([]uint64{5})
	assert.Equal(t, []uint64{4}, h.SeatIDs)
}

func TestHoldContains(t *testing.T) {
	h := &Hold{SeatIDs: []uint64{4, 9}}
	assert.True(t, h.Contains(9))
	assert.False(t, h.Contains(5))
}

func TestSetComboLastWriteWins(t *testing.T) {
	s := &OrderSession{}
	s.SetCombo(ComboLine{ConcessionID: 1, Quantity: 2, UnitPriceCents: 500})
	s.SetCombo(ComboLine{ConcessionID: 2, Quantity: 1, UnitPriceCents: 300})
	s.SetCombo(ComboLine{ConcessionID: 1, Quantity: 5, UnitPriceCents: 500})

	assert.Len(t, s.Combos, 2)
	assert.Equal(t, uint32(5), s.Combos[0].Quantity)
}

func TestSetComboZeroRemoves(t *testing.T) {
	s := &OrderSession{}
	s.SetCombo(ComboLine{ConcessionID: 1, Quantity: 2})
	s.SetCombo(ComboLine{ConcessionID: 1, Quantity: 0})
	assert.Empty(t, s.Combos)

	// Removing an absent line is a no-op.
	s.SetCombo(ComboLine{ConcessionID: 9, Quantity: 0})
	assert.Empty(t, s.Combos)
}
