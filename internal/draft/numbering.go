package draft

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NextInvoiceNumber proposes the next invoice number for now's two-digit
// year following the YY-NNNN convention: one past the highest existing
// number for that year, zero-padded to four digits, or YY-0001 when the
// year has no invoices yet. Numbers that do not parse are skipped. The
// proposal is advisory; the user may still edit it before submit.
func NextInvoiceNumber(now time.Time, existing []string) string {
	year := fmt.Sprintf("%02d", now.Year()%100)
	prefix := year + "-"

	max := 0
	for _, number := range existing {
		if !strings.HasPrefix(number, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
		if err != nil || n <= 0 {
			continue
		}
		if n > max {
			max = n
		}
	}

	return fmt.Sprintf("%s-%04d", year, max+1)
}
