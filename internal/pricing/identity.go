package pricing

import (
	"sort"
	"strings"
)

var idReplacer = strings.NewReplacer(" ", "_", ".", "_")

// CartID derives the storage key of a configured product. Identical selections
// collide regardless of the order the options were supplied in.
func CartID(sku string, options Options) string {
	groups := make([]string, 0, len(options))
	for group := range options {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	var b strings.Builder
	b.WriteString(sku)
	for _, group := range groups {
		b.WriteString("-")
		b.WriteString(group)
		b.WriteString("-")
		b.WriteString(options[group])
	}
	return strings.ToLower(idReplacer.Replace(b.String()))
}
