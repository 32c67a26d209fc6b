// Package postproc repairs the emitted text with a closed rule list and then
// hands it to rustfmt. Every rule is a fixed string rewrite; the pass is
// idempotent so the driver may run it again on cached output.
package postproc

import "strings"

// spacingRules is the closed normalization list, applied in order. Each
// rewrite maps onto text that no earlier rule re-triggers.
var spacingRules = [...]struct {
	old string
	new string
}{
	{" :: ", "::"},
	{":: ", "::"},
	{" ::", "::"},
	{" . ", "."},
	{" .len()", ".len()"},
	{" .push(", ".push("},
	{"- >", "->"},
	{" ! = ", " != "},
	{"! =", "!="},
	{" = = ", " == "},
	{"= =", "=="},
	{"< =", "<="},
	{"> =", ">="},
	{"& mut ", "&mut "},
	{"& self", "&self"},
	{"& &", "&&"},
	{".. =", "..="},
	{" ;", ";"},
	{" ,", ","},
	{"( ", "("},
	{" )", ")"},
	{"[ ", "["},
	{" ]", "]"},
	{" ?", "?"},
}

// NormalizeSpacing applies the spacing rule list. Applying it twice yields
// the same string.
func NormalizeSpacing(src string) string {
	for _, r := range spacingRules {
		src = strings.ReplaceAll(src, r.old, r.new)
	}
	return src
}
