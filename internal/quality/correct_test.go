package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retaildq/internal/dataset"
	pipeerrors "retaildq/internal/errors"
)

func customerColumns() []string {
	return []string{"id", "name", "email", "phone", "birth_date", "registration_date", "city", "state"}
}

func newCustomerTable(rows ...dataset.Row) *dataset.Table {
	t := dataset.New("customers", customerColumns()...)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func newProductTable(rows ...dataset.Row) *dataset.Table {
	t := dataset.New("products", "id", "product_name", "category", "price", "stock", "creation_date")
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func newSaleTable(rows ...dataset.Row) *dataset.Table {
	t := dataset.New("sales", "id", "customer_id", "product_id", "quantity", "unit_price", "total_value", "sale_date")
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func TestCorrectCustomers(t *testing.T) {
	raw := newCustomerTable(
		dataset.Row{"id": "1", "name": "", "email": " ANA@EX.COM ", "phone": "(11) 9876-5432", "birth_date": "01/02/1990", "registration_date": "2022-05-05", "city": "São Paulo", "state": "SP"},
		dataset.Row{"id": "1", "name": "Ana", "email": "ana@ex.com", "phone": "", "birth_date": "", "registration_date": "", "city": "", "state": ""},
		dataset.Row{"id": "2", "name": "Bruno", "email": "", "phone": "123", "birth_date": "bogus", "registration_date": "2022-06-07", "city": "Recife", "state": "PE"},
	)

	corrected, stats, err := CorrectCustomers(raw, DefaultCorrectionOptions())
	require.NoError(t, err)

	// Row 2 duplicates row 1 on (id, email) after normalization.
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	require.Equal(t, 2, corrected.Len())

	first := corrected.Rows[0]
	assert.Equal(t, "ana@ex.com", first["email"])
	assert.Equal(t, "01198765432", first["phone"])
	assert.Equal(t, "1990-02-01", first["birth_date"])
	assert.Equal(t, "Unnamed Customer", first["name"])

	second := corrected.Rows[1]
	assert.Equal(t, "no-email@unknown", second["email"])
	assert.Equal(t, "00000000123", second["phone"])
	assert.Equal(t, "", second["birth_date"], "unparseable date degrades to sentinel")

	assert.Equal(t, 3, stats.RowsIn)
	assert.Equal(t, 2, stats.RowsOut)
	assert.Positive(t, stats.ValuesDefaulted)
}

func TestCorrectCustomers_MissingColumnIsStructural(t *testing.T) {
	raw := dataset.New("customers", "id", "name") // no email column at all

	_, _, err := CorrectCustomers(raw, DefaultCorrectionOptions())

	require.Error(t, err)
	assert.True(t, pipeerrors.IsStructural(err))
}

func TestCorrectProducts(t *testing.T) {
	raw := newProductTable(
		dataset.Row{"id": "10", "product_name": "", "category": "", "price": "-5", "stock": "-3", "creation_date": "2021-01-01"},
		dataset.Row{"id": "11", "product_name": "Mouse Pro", "category": "Acc", "price": "49.9", "stock": "7", "creation_date": "01/03/2021"},
		dataset.Row{"id": "11", "product_name": "Mouse Pro", "category": "Acc", "price": "49.9", "stock": "7", "creation_date": "2021-03-01"},
	)

	corrected, stats, err := CorrectProducts(raw, DefaultCorrectionOptions())
	require.NoError(t, err)

	require.Equal(t, 2, corrected.Len())
	first := corrected.Rows[0]
	assert.Equal(t, "0", first["price"], `price "-5" must correct to 0`)
	assert.Equal(t, "0", first["stock"], `stock "-3" must correct to 0`)
	assert.Equal(t, "Unnamed Product", first["product_name"])
	assert.Equal(t, "Uncategorized", first["category"])

	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 2, stats.ValuesClamped)
	assert.Equal(t, "2021-03-01", corrected.Rows[1]["creation_date"])
}

func TestCorrectSales(t *testing.T) {
	customers, _, err := CorrectCustomers(newCustomerTable(
		dataset.Row{"id": "1", "name": "Ana", "email": "a@b.com", "phone": "11987654321", "birth_date": "1990-01-01", "registration_date": "2020-01-01", "city": "X", "state": "SP"},
	), DefaultCorrectionOptions())
	require.NoError(t, err)
	products, _, err := CorrectProducts(newProductTable(
		dataset.Row{"id": "10", "product_name": "Mouse", "category": "Acc", "price": "50", "stock": "5", "creation_date": "2020-01-01"},
	), DefaultCorrectionOptions())
	require.NoError(t, err)

	raw := newSaleTable(
		dataset.Row{"id": "100", "customer_id": "1", "product_id": "10", "quantity": "0", "unit_price": "-2", "total_value": "999", "sale_date": "2023-01-15"},
		dataset.Row{"id": "101", "customer_id": "999", "product_id": "10", "quantity": "2", "unit_price": "10", "total_value": "20", "sale_date": "2023-01-16"},
		dataset.Row{"id": "102", "customer_id": "1", "product_id": "888", "quantity": "1", "unit_price": "5", "total_value": "5", "sale_date": "2023-01-17"},
		dataset.Row{"id": "103", "customer_id": "1", "product_id": "10", "quantity": "3", "unit_price": "19.5", "total_value": "", "sale_date": "17/01/2023"},
	)

	corrected, stats, err := CorrectSales(raw, customers, products, DefaultCorrectionOptions())
	require.NoError(t, err)

	require.Equal(t, 2, corrected.Len())
	assert.Equal(t, 1, stats.ForeignKeyDrops["customer_id"])
	assert.Equal(t, 1, stats.ForeignKeyDrops["product_id"])

	first := corrected.Rows[0]
	assert.Equal(t, "1", first["quantity"], "quantity floors at 1")
	assert.Equal(t, "0", first["unit_price"])
	assert.Equal(t, "0", first["total_value"], "total_value is recomputed, never trusted")

	second := corrected.Rows[1]
	assert.Equal(t, "58.5", second["total_value"])
	assert.Equal(t, "2023-01-17", second["sale_date"])
}

func TestCorrectSales_TotalValueInvariant(t *testing.T) {
	customers := newCustomerTable(dataset.Row{"id": "1", "name": "A", "email": "a@b.com", "phone": "1", "birth_date": "", "registration_date": "", "city": "", "state": ""})
	products := newProductTable(dataset.Row{"id": "10", "product_name": "P", "category": "C", "price": "1", "stock": "1", "creation_date": ""})

	raw := newSaleTable(
		dataset.Row{"id": "1", "customer_id": "1", "product_id": "10", "quantity": "7", "unit_price": "3.33", "total_value": "bogus", "sale_date": "2023-02-02"},
	)

	corrected, _, err := CorrectSales(raw, customers, products, DefaultCorrectionOptions())
	require.NoError(t, err)

	require.Equal(t, 1, corrected.Len())
	qty, ok := ParseFloat(corrected.Rows[0]["quantity"])
	require.True(t, ok)
	unit, ok := ParseFloat(corrected.Rows[0]["unit_price"])
	require.True(t, ok)
	total, ok := ParseFloat(corrected.Rows[0]["total_value"])
	require.True(t, ok)
	assert.Equal(t, qty*unit, total)
}

func TestCorrectLogistics(t *testing.T) {
	sales := newSaleTable(
		dataset.Row{"id": "100", "customer_id": "1", "product_id": "10", "quantity": "1", "unit_price": "1", "total_value": "1", "sale_date": "2023-01-01"},
	)

	raw := dataset.New("logistics", "sale_id", "ship_date", "expected_delivery_date", "actual_delivery_date")
	raw.Append(dataset.Row{"sale_id": "100", "ship_date": "02/01/2023", "expected_delivery_date": "2023-01-05", "actual_delivery_date": "2023-01-06"})
	raw.Append(dataset.Row{"sale_id": "777", "ship_date": "2023-01-02", "expected_delivery_date": "", "actual_delivery_date": ""})

	corrected, stats, err := CorrectLogistics(raw, sales, DefaultCorrectionOptions())
	require.NoError(t, err)

	require.Equal(t, 1, corrected.Len())
	assert.Equal(t, 1, stats.ForeignKeyDrops["sale_id"])
	assert.Equal(t, "2023-01-02", corrected.Rows[0]["ship_date"])
}

func TestCorrectors_Idempotent(t *testing.T) {
	opts := DefaultCorrectionOptions()

	rawCustomers := newCustomerTable(
		dataset.Row{"id": "1", "name": "", "email": " ANA@EX.COM ", "phone": "11 9876-5432", "birth_date": "01/02/1990", "registration_date": "2022-05-05", "city": "São Paulo", "state": "SP"},
		dataset.Row{"id": "2", "name": "Bruno", "email": "", "phone": "123", "birth_date": "bogus", "registration_date": "", "city": "Recife", "state": "PE"},
	)
	once, _, err := CorrectCustomers(rawCustomers, opts)
	require.NoError(t, err)
	twice, stats, err := CorrectCustomers(once, opts)
	require.NoError(t, err)
	assert.Equal(t, once, twice, "correcting an already-corrected customer table must be a no-op")
	assert.Zero(t, stats.DuplicatesRemoved)
	assert.Zero(t, stats.ValuesDefaulted)

	rawProducts := newProductTable(
		dataset.Row{"id": "10", "product_name": "", "category": "", "price": "-5", "stock": "-3", "creation_date": "x"},
	)
	onceP, _, err := CorrectProducts(rawProducts, opts)
	require.NoError(t, err)
	twiceP, statsP, err := CorrectProducts(onceP, opts)
	require.NoError(t, err)
	assert.Equal(t, onceP, twiceP)
	assert.Zero(t, statsP.ValuesClamped)

	rawSales := newSaleTable(
		dataset.Row{"id": "100", "customer_id": "1", "product_id": "10", "quantity": "0", "unit_price": "19.9", "total_value": "", "sale_date": "2023-01-01"},
	)
	onceS, _, err := CorrectSales(rawSales, once, onceP, opts)
	require.NoError(t, err)
	twiceS, statsS, err := CorrectSales(onceS, once, onceP, opts)
	require.NoError(t, err)
	assert.Equal(t, onceS, twiceS)
	assert.Zero(t, statsS.ForeignKeyDrops["customer_id"])
	assert.Zero(t, statsS.ForeignKeyDrops["product_id"])
}

func TestCorrectSales_EmptyParentsDropEverything(t *testing.T) {
	raw := newSaleTable(
		dataset.Row{"id": "1", "customer_id": "1", "product_id": "10", "quantity": "1", "unit_price": "1", "total_value": "1", "sale_date": ""},
	)
	emptyCustomers := dataset.Empty("customers", customerColumns()...)
	emptyProducts := dataset.Empty("products", "id")

	corrected, stats, err := CorrectSales(raw, emptyCustomers, emptyProducts, DefaultCorrectionOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, corrected.Len())
	assert.Equal(t, 1, stats.ForeignKeyDrops["customer_id"])
}
