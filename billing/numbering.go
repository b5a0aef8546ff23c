package billing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
)

const (
	clientPrefix    = "client-"
	invoiceInfix    = "-Inv-"
	sequenceDigits  = 3
	clientTagSuffix = 3
)

func pad(n int) string {
	return fmt.Sprintf("%0*d", sequenceDigits, n)
}

// CustomID is the tag given to a new client when existing clients already exist.
func CustomID(existing int) string {
	return clientPrefix + pad(existing+1)
}

// ClientTag is the invoice number prefix of a client: its customId, or a tag
// synthesized from the end of its id for clients created without one.
func ClientTag(client *models.Client) string {
	if client.CustomId != nil && strings.TrimSpace(*client.CustomId) != "" {
		return strings.TrimSpace(*client.CustomId)
	}
	id := strings.TrimSpace(string(client.ID))
	if n, err := strconv.Atoi(id); err == nil && n >= 0 {
		return clientPrefix + pad(n)
	}
	if len(id) > clientTagSuffix {
		id = id[len(id)-clientTagSuffix:]
	}
	return clientPrefix + id
}

// NextInvoiceSeq returns the sequence for a client's next invoice. lastAssigned is the
// highest sequence handed out so far and existing the client's current invoice count;
// taking the larger keeps numbers unique after deletions and for clients whose
// invoices predate the counter.
func NextInvoiceSeq(lastAssigned, existing int) int {
	if existing > lastAssigned {
		return existing + 1
	}
	return lastAssigned + 1
}

// NextCustomID is CustomID guarded the same way as invoice sequences: it never reissues
// a tag below lastAssigned.
func NextCustomID(lastAssigned, existing int) string {
	return clientPrefix + pad(NextInvoiceSeq(lastAssigned, existing))
}

func InvoiceNumber(tag string, seq int) string {
	return tag + invoiceInfix + pad(seq)
}

// InvoiceSeqOf parses the sequence back out of an invoice number, 0 when it has none.
func InvoiceSeqOf(invoiceNumber string) int {
	i := strings.LastIndex(invoiceNumber, invoiceInfix)
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(invoiceNumber[i+len(invoiceInfix):])
	if err != nil {
		return 0
	}
	return n
}

// CustomIDSeqOf parses the counter out of a "client-NNN" tag, 0 when it has none.
func CustomIDSeqOf(customID string) int {
	if !strings.HasPrefix(customID, clientPrefix) {
		return 0
	}
	n, err := strconv.Atoi(customID[len(clientPrefix):])
	if err != nil {
		return 0
	}
	return n
}
