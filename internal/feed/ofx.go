// Package feed reads the three upstream inputs (card feed OFX
// statements, the expense-system CSV export, and the extraction
// collaborator's JSON output) and turns them into raw records for the
// normalizer. Feed readers do no interpretation of their own: amounts and
// dates stay as the source's strings so the normalizer can report
// malformed fields precisely.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/meridianhq/eventrecon/internal/normalize"
)

// OFXReader parses OFX/QFX card statements into raw records.
type OFXReader struct{}

// NewOFXReader creates an OFX card feed reader.
func NewOFXReader() *OFXReader {
	return &OFXReader{}
}

// preprocessOFX fixes common formatting issues in OFX files before
// handing them to the parser.
func (r *OFXReader) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// Read parses an OFX/QFX document and returns one raw record per card
// transaction.
func (r *OFXReader) Read(_ context.Context, reader io.Reader) ([]normalize.RawRecord, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(r.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var records []normalize.RawRecord

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			currency := fmt.Sprintf("%v", stmt.CurDef)
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTx := range stmt.BankTranList.Transactions {
				records = append(records, r.convert(ofxTx, currency))
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			currency := fmt.Sprintf("%v", stmt.CurDef)
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTx := range stmt.BankTranList.Transactions {
				records = append(records, r.convert(ofxTx, currency))
			}
		}
	}

	slog.Info("Parsed OFX card feed", "records", len(records))

	return records, nil
}

func (r *OFXReader) convert(ofxTx ofxgo.Transaction, currency string) normalize.RawRecord {
	amount, _ := ofxTx.TrnAmt.Float64()

	return normalize.RawRecord{
		ExternalID:  string(ofxTx.FiTID),
		Amount:      strconv.FormatFloat(amount, 'f', 2, 64),
		Currency:    currency,
		Date:        ofxTx.DtPosted.Time.Format("2006-01-02"),
		Vendor:      extractVendor(ofxTx),
		Description: string(ofxTx.Name),
	}
}

// extractVendor pulls the cleanest merchant name available from an OFX
// transaction: PAYEE when present, otherwise the NAME field with common
// processor prefixes stripped.
func extractVendor(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Strip leading "MM/DD " date stamps some processors prepend
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}
