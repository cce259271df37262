package quality

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retaildq/internal/dataset"
)

// customersWithInvalidEmails builds a 100-row table with the given
// number of invalid addresses.
func customersWithInvalidEmails(invalid int) *dataset.Table {
	t := dataset.New("customers", "id", "name", "email")
	for i := 0; i < 100; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		if i < invalid {
			email = "broken-address"
		}
		t.Append(dataset.Row{"id": fmt.Sprint(i), "name": "n", "email": email})
	}
	return t
}

func TestVerifyCustomerAlerts_InvalidEmailThreshold(t *testing.T) {
	th := DefaultAlertThresholds()

	t.Run("3 of 100 invalid fires", func(t *testing.T) {
		alerts := VerifyCustomerAlerts(customersWithInvalidEmails(3), th)
		require.Len(t, alerts, 1)
		assert.Contains(t, alerts[0], "emails are invalid")
	})

	t.Run("1 of 100 invalid stays quiet", func(t *testing.T) {
		alerts := VerifyCustomerAlerts(customersWithInvalidEmails(1), th)
		assert.Empty(t, alerts)
	})

	t.Run("exactly at threshold stays quiet", func(t *testing.T) {
		alerts := VerifyCustomerAlerts(customersWithInvalidEmails(2), th)
		assert.Empty(t, alerts, "threshold is strict greater-than")
	})
}

func TestVerifyCustomerAlerts_MissingName(t *testing.T) {
	table := dataset.New("customers", "id", "name", "email")
	for i := 0; i < 10; i++ {
		name := "x"
		if i < 3 {
			name = ""
		}
		table.Append(dataset.Row{"id": fmt.Sprint(i), "name": name, "email": "a@b.com"})
	}

	alerts := VerifyCustomerAlerts(table, DefaultAlertThresholds())

	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "no name")
}

func TestVerifyProductAlerts(t *testing.T) {
	table := dataset.New("products", "id", "price", "category")
	table.Append(dataset.Row{"id": "1", "price": "-10", "category": ""})
	table.Append(dataset.Row{"id": "2", "price": "5", "category": "Books"})

	alerts := VerifyProductAlerts(table, DefaultAlertThresholds())

	require.Len(t, alerts, 2)
	assert.Contains(t, alerts[0], "negative price")
	assert.Contains(t, alerts[1], "no category")
}

func TestVerifySaleAlerts(t *testing.T) {
	table := dataset.New("sales", "id", "quantity", "total_value")
	table.Append(dataset.Row{"id": "1", "quantity": "0", "total_value": "-7"})

	alerts := VerifySaleAlerts(table, DefaultAlertThresholds())

	require.Len(t, alerts, 2)
	assert.Contains(t, alerts[0], "quantity")
	assert.Contains(t, alerts[1], "negative total value")
}

func TestVerifyAlerts_EmptyTablesAreAlertFree(t *testing.T) {
	th := DefaultAlertThresholds()
	alerts := VerifyAlerts(
		dataset.Empty("customers", "id", "name", "email"),
		dataset.Empty("products", "id", "price", "category"),
		dataset.Empty("sales", "id", "quantity", "total_value"),
		th,
	)
	assert.Empty(t, alerts)
}

func TestVerifyAlerts_StableOrder(t *testing.T) {
	customers := customersWithInvalidEmails(50)
	products := dataset.New("products", "id", "price", "category")
	products.Append(dataset.Row{"id": "1", "price": "-1", "category": ""})
	sales := dataset.New("sales", "id", "quantity", "total_value")
	sales.Append(dataset.Row{"id": "1", "quantity": "0", "total_value": "-1"})

	alerts := VerifyAlerts(customers, products, sales, DefaultAlertThresholds())

	require.Len(t, alerts, 5)
	assert.True(t, strings.Contains(alerts[0], "emails"), "customer checks come first")
	assert.True(t, strings.Contains(alerts[1], "negative price"))
	assert.True(t, strings.Contains(alerts[3], "quantity"))
}
