package salereturn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minipos/internal/core/apperror"
	"minipos/internal/core/id"
	"minipos/internal/core/types"
	"minipos/internal/domain/sales/bill"
)

func makeLine(productID id.ID, lineNo, qty int, price string) bill.Line {
	lotID := id.New()
	return bill.Line{
		ID:          id.New(),
		LineNo:      lineNo,
		ProductID:   productID,
		LotID:       &lotID,
		ProductName: "Test Product",
		Quantity:    qty,
		UnitPrice:   types.MustMoney(price),
	}
}

func TestApportion_SingleLine(t *testing.T) {
	p := id.New()
	lines := []bill.Line{makeLine(p, 1, 5, "10")}

	allocs, err := Apportion(lines, p, 3)
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.Equal(t, 3, allocs[0].Quantity)
}

func TestApportion_FirstFitAcrossLots(t *testing.T) {
	// Product sold from two lots: qty 3 then qty 5. A return of 4 must
	// take 3 from the first line and 1 from the second.
	p := id.New()
	lines := []bill.Line{
		makeLine(p, 1, 3, "10"),
		makeLine(p, 2, 5, "10"),
	}

	allocs, err := Apportion(lines, p, 4)
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, 3, allocs[0].Quantity)
	assert.Equal(t, 1, allocs[1].Quantity)
	assert.Equal(t, lines[0].ID, allocs[0].Line.ID)
	assert.Equal(t, lines[1].ID, allocs[1].Line.ID)
}

func TestApportion_StopsEarly(t *testing.T) {
	// Third line must produce no allocation once the request is filled.
	p := id.New()
	lines := []bill.Line{
		makeLine(p, 1, 2, "5"),
		makeLine(p, 2, 2, "5"),
		makeLine(p, 3, 2, "5"),
	}

	allocs, err := Apportion(lines, p, 4)
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, 2, allocs[0].Quantity)
	assert.Equal(t, 2, allocs[1].Quantity)
}

func TestApportion_IgnoresOtherProducts(t *testing.T) {
	p := id.New()
	other := id.New()
	lines := []bill.Line{
		makeLine(other, 1, 10, "7"),
		makeLine(p, 2, 4, "10"),
	}

	allocs, err := Apportion(lines, p, 4)
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.Equal(t, p, allocs[0].Line.ProductID)
	assert.Equal(t, 4, allocs[0].Quantity)
}

func TestApportion_ExactTotal(t *testing.T) {
	p := id.New()
	lines := []bill.Line{
		makeLine(p, 1, 3, "10"),
		makeLine(p, 2, 5, "10"),
	}

	allocs, err := Apportion(lines, p, 8)
	require.NoError(t, err)

	sum := 0
	for _, a := range allocs {
		assert.LessOrEqual(t, a.Quantity, a.Line.Quantity)
		sum += a.Quantity
	}
	assert.Equal(t, 8, sum)
}

func TestApportion_OverReturn(t *testing.T) {
	p := id.New()
	lines := []bill.Line{
		makeLine(p, 1, 3, "10"),
		makeLine(p, 2, 5, "10"),
	}

	allocs, err := Apportion(lines, p, 9)
	require.Error(t, err)
	assert.Nil(t, allocs)
	assert.True(t, apperror.IsOverReturn(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 9, appErr.Details["requested"])
	assert.Equal(t, 8, appErr.Details["purchased"])
	assert.Contains(t, appErr.Message, "Test Product")
}

func TestApportion_ProductNotOnBill(t *testing.T) {
	lines := []bill.Line{makeLine(id.New(), 1, 3, "10")}

	allocs, err := Apportion(lines, id.New(), 1)
	assert.Nil(t, allocs)
	assert.ErrorIs(t, err, ErrProductNotOnBill)
}

func TestApportion_Deterministic(t *testing.T) {
	p := id.New()
	lines := []bill.Line{
		makeLine(p, 1, 2, "3"),
		makeLine(p, 2, 7, "3"),
		makeLine(p, 3, 1, "3"),
	}

	first, err := Apportion(lines, p, 6)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Apportion(lines, p, 6)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
