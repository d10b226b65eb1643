// Package langcode resolves raw detector language codes to canonical codes
// and human-readable names.
package langcode

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalizer holds the alias and display-name tables. It is read-only after
// construction and safe for concurrent use.
type Normalizer struct {
	aliases map[string]string
	names   map[string]string
}

// New returns a Normalizer over the built-in tables. It panics if the
// built-in alias table is not idempotent.
func New() *Normalizer {
	n, err := NewWithOverrides(Overrides{})
	if err != nil {
		panic("langcode: built-in tables: " + err.Error())
	}
	return n
}

// NewWithOverrides merges ov over the built-in tables. It fails when the
// merged alias table would not be idempotent.
func NewWithOverrides(ov Overrides) (*Normalizer, error) {
	n := &Normalizer{
		aliases: make(map[string]string, len(defaultAliases)+len(ov.Aliases)),
		names:   make(map[string]string, len(defaultNames)+len(ov.Names)),
	}
	for k, v := range defaultAliases {
		n.aliases[k] = v
	}
	for k, v := range defaultNames {
		n.names[k] = v
	}
	for k, v := range ov.Aliases {
		n.aliases[key(k)] = key(v)
	}
	for k, v := range ov.Names {
		n.names[key(k)] = v
	}

	for from, to := range n.aliases {
		if next, ok := n.aliases[to]; ok && next != to {
			return nil, eris.Errorf("langcode: alias %q -> %q chains to %q", from, to, next)
		}
	}
	return n, nil
}

// Normalize returns the canonical code for raw. With enabled false the code
// is only lower-cased. Unknown codes pass through lower-cased.
func (n *Normalizer) Normalize(raw string, enabled bool) string {
	k := key(raw)
	if !enabled {
		return k
	}
	if canonical, ok := n.aliases[k]; ok {
		return canonical
	}
	return k
}

// DisplayName returns a human-readable name for a canonical code, or
// UnknownLanguage.
func (n *Normalizer) DisplayName(code string) string {
	k := key(code)
	if name, ok := n.names[k]; ok {
		return name
	}
	if k == "" {
		return UnknownLanguage
	}
	tag, err := language.Parse(k)
	if err != nil || tag == language.Und {
		return UnknownLanguage
	}
	if name := display.English.Tags().Name(tag); name != "" && !strings.EqualFold(name, k) {
		return name
	}
	return UnknownLanguage
}

// IsChinese reports whether raw belongs to the Chinese family.
func IsChinese(raw string) bool {
	k := key(raw)
	if k == "" {
		return false
	}
	if k == "zh" || k == "cn" || k == "cmn" || strings.HasPrefix(k, "zh-") || strings.HasPrefix(k, "zh_") {
		return true
	}
	tag, err := language.Parse(k)
	if err != nil {
		return false
	}
	base, conf := tag.Base()
	return conf != language.No && base.String() == "zh"
}

// IsAlias reports whether raw is a key of the built-in alias table.
func IsAlias(raw string) bool {
	_, ok := defaultAliases[key(raw)]
	return ok
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
