package feed

import (
	"testing"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
)

func TestExtractVendor(t *testing.T) {
	tests := []struct {
		name     string
		txName   string
		memo     string
		payee    string
		expected string
	}{
		{
			name:     "plain merchant name",
			txName:   "STARBUCKS #1234",
			expected: "STARBUCKS #1234",
		},
		{
			name:     "payee takes precedence",
			txName:   "POS PURCHASE 123456",
			payee:    "Marriott Hotels",
			expected: "Marriott Hotels",
		},
		{
			name:     "strips POS prefix",
			txName:   "POS PURCHASE STARBUCKS",
			expected: "STARBUCKS",
		},
		{
			name:     "strips check card prefix",
			txName:   "CHECK CARD UBER TRIP",
			expected: "UBER TRIP",
		},
		{
			name:     "strips leading date stamp",
			txName:   "03/15 MARRIOTT DOWNTOWN",
			expected: "MARRIOTT DOWNTOWN",
		},
		{
			name:     "generic name falls back to memo",
			txName:   "DEBIT",
			memo:     "HILTON GARDEN INN",
			expected: "HILTON GARDEN INN",
		},
		{
			name:     "generic name without memo stays",
			txName:   "PURCHASE",
			expected: "PURCHASE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.txName),
				Memo: ofxgo.String(tt.memo),
			}
			if tt.payee != "" {
				tx.Payee = &ofxgo.Payee{Name: ofxgo.String(tt.payee)}
			}
			assert.Equal(t, tt.expected, extractVendor(tx))
		})
	}
}

func TestIsGenericDescription(t *testing.T) {
	assert.True(t, isGenericDescription("DEBIT"))
	assert.True(t, isGenericDescription("card purchase"))
	assert.False(t, isGenericDescription("STARBUCKS"))
	assert.False(t, isGenericDescription("DEBIT CARD 1234"))
}

func TestPreprocessOFX(t *testing.T) {
	reader := NewOFXReader()

	t.Run("fixes mixed-case severity", func(t *testing.T) {
		got := reader.preprocessOFX("<SEVERITY>Info</SEVERITY>")
		assert.Equal(t, "<SEVERITY>INFO</SEVERITY>", got)
	})

	t.Run("closes unterminated SGML tags", func(t *testing.T) {
		got := reader.preprocessOFX("<STMTTRN\n")
		assert.Equal(t, "<STMTTRN>\n", got)
	})

	t.Run("trims leading whitespace", func(t *testing.T) {
		got := reader.preprocessOFX("\n\n  OFXHEADER:100")
		assert.Equal(t, "OFXHEADER:100", got)
	})
}
