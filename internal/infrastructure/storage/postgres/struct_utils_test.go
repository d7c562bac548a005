package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minipos/internal/core/id"
	"minipos/internal/core/types"
	"minipos/internal/domain/catalogs/product"
	"minipos/internal/domain/registers/lotstock"
	"minipos/internal/domain/sales/salereturn"
)

func TestExtractDBColumns_Product(t *testing.T) {
	cols := ExtractDBColumns[product.Product]()
	assert.Contains(t, cols, "id")
	assert.Contains(t, cols, "sku")
	assert.Contains(t, cols, "name")
	assert.Contains(t, cols, "unit_price")
	assert.Contains(t, cols, "stock_quantity")
}

func TestExtractDBColumns_SkipsUntagged(t *testing.T) {
	type sample struct {
		A string `db:"a"`
		B string `db:"-"`
		C string
	}
	cols := ExtractDBColumns[sample]()
	assert.Equal(t, []string{"a"}, cols)
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	type base struct {
		ID string `db:"id"`
	}
	type child struct {
		base
		Name string `db:"name"`
	}
	cols := ExtractDBColumns[child]()
	assert.Equal(t, []string{"id", "name"}, cols)
}

func TestStructToMap_ReturnLine(t *testing.T) {
	line := salereturn.ReturnLine{
		ID:          id.New(),
		ProductName: "Aspirin",
		Quantity:    3,
		UnitPrice:   types.MustMoney("10"),
		Subtotal:    types.MustMoney("30"),
	}

	m := StructToMap(line)
	require.NotNil(t, m)
	assert.Equal(t, "Aspirin", m["product_name"])
	assert.Equal(t, 3, m["quantity"])
	assert.Equal(t, line.ID, m["id"])
}

func TestExtractDBColumns_ReturnBillSkipsJoinedFields(t *testing.T) {
	cols := ExtractDBColumns[salereturn.ReturnBill]()
	assert.Contains(t, cols, "total_amount_returned")
	assert.NotContains(t, cols, "cashier_name")
	assert.NotContains(t, cols, "lines")
}

func TestStructToMap_NilExpiryMapsToNull(t *testing.T) {
	lot := lotstock.LotStock{
		ID:              id.New(),
		LotNumber:       "LOT-1",
		CurrentQuantity: 5,
		InventoryStatus: lotstock.StatusActive,
	}

	m := StructToMap(lot)
	require.NotNil(t, m)
	require.Contains(t, m, "expires_at")
	assert.Equal(t, (*time.Time)(nil), m["expires_at"])
}

func TestStructToMap_Pointer(t *testing.T) {
	p := &product.Product{Name: "Tea", StockQuantity: 7}
	m := StructToMap(p)
	require.NotNil(t, m)
	assert.Equal(t, "Tea", m["name"])
	assert.Equal(t, 7, m["stock_quantity"])
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("str"))
}
