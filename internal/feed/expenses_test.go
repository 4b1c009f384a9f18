package feed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseReaderRead(t *testing.T) {
	input := `[
		{
			"id": "exp-1",
			"event_id": "event-q3",
			"amount": 125.50,
			"currency": "USD",
			"expense_date": "2024-03-15",
			"vendor_name": "Marriott Hotels",
			"description": "Team dinner after the offsite",
			"expense_type": "Meals",
			"confidence_score": 0.92
		},
		{
			"id": "exp-2",
			"event_id": "event-q3",
			"amount": 89.99,
			"currency": "USD",
			"expense_date": "2024-03-16",
			"vendor_name": "Uber",
			"confidence_score": 0.71
		}
	]`

	records, err := NewExpenseReader().Read(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "exp-1", records[0].ExternalID)
	assert.Equal(t, "event-q3", records[0].EventID)
	assert.Equal(t, "125.50", records[0].Amount)
	assert.Equal(t, "USD", records[0].Currency)
	assert.Equal(t, "2024-03-15", records[0].Date)
	assert.Equal(t, "Marriott Hotels", records[0].Vendor)
	assert.Equal(t, "Meals", records[0].Category)
	assert.Equal(t, 0.92, records[0].ExtractionConfidence)

	// json.Number keeps the literal digits, so "89.99" stays exact.
	assert.Equal(t, "89.99", records[1].Amount)
	assert.Equal(t, 0.71, records[1].ExtractionConfidence)
}

func TestExpenseReaderEmptyArray(t *testing.T) {
	records, err := NewExpenseReader().Read(context.Background(), strings.NewReader("[]"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExpenseReaderInvalidJSON(t *testing.T) {
	_, err := NewExpenseReader().Read(context.Background(), strings.NewReader(`{"not": "an array"}`))
	require.Error(t, err)
}
