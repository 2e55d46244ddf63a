package utils

import (
	"strings"

	"quote-bridge/src/models"
)

// EncodeSymbol builds the provider symbol for an option contract:
// root + YYMMDD + C|P + strike, e.g. ".SPXW250321C5900".
func EncodeSymbol(root string, c models.MOptionContract) string {
	var b strings.Builder
	b.Grow(len(root) + 16)
	b.WriteString(root)
	b.WriteString(c.Expiration.Format("060102"))
	b.WriteString(c.OptionType.Code())
	b.WriteString(c.Strike.String())
	return b.String()
}
