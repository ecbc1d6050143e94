// Package spend attributes ad-account spend to the page posts the ads
// promote. Ads reference posts through their creative's effective object
// story id; spend is fetched once per ad from the insights edge and summed
// per post.
package spend

import (
	"fmt"
	"regexp"
	"strings"
)

// accountIDPlaceholder is the unconfigured default; a placeholder account id
// runs the export with zero spend everywhere instead of failing.
const accountIDPlaceholder = "<AD_ACCOUNT_ID>"

var digitsOnly = regexp.MustCompile(`^\d+$`)

// NormalizeAdAccountID canonicalizes an ad account id to its bare numeric
// form, accepting "123" or "act_123". Empty and placeholder values normalize
// to "" (spend attribution disabled); anything else non-numeric is an error.
func NormalizeAdAccountID(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" || v == accountIDPlaceholder {
		return "", nil
	}
	v = strings.TrimPrefix(v, "act_")
	if !digitsOnly.MatchString(v) {
		return "", fmt.Errorf("invalid ad account id %q: expected \"123\" or \"act_123\"", value)
	}
	return v, nil
}
