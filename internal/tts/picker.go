package tts

import "strings"

// Rule is one priority tier of the voice ranking. A voice matches when every
// set condition holds. Empty conditions match everything, so an empty Rule is
// a catch-all.
type Rule struct {
	NameAny   []string // voice name contains any of these
	LangAny   []string // normalized language tag contains any of these
	LangExact []string // normalized language tag equals one of these
	Network   bool     // require network/online quality
}

func (r Rule) matches(v Voice) bool {
	if len(r.NameAny) > 0 && !containsAny(v.Name, r.NameAny) {
		return false
	}
	lang := normalizeLang(v.Lang)
	if len(r.LangAny) > 0 && !containsAny(lang, r.LangAny) {
		return false
	}
	if len(r.LangExact) > 0 {
		hit := false
		for _, want := range r.LangExact {
			if lang == strings.ToLower(want) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if r.Network && !v.Network {
		return false
	}
	return true
}

// Ruleset is the full ranked heuristic: a language-family filter plus ordered
// priority rules. First rule with a matching voice wins; if no rule matches,
// the first family voice is used; if the family is empty, no voice is bound
// and synthesis proceeds on the language hint alone.
type Ruleset struct {
	Family []string
	Rules  []Rule
}

// Pick selects the best voice from the list. Selection is deterministic and
// independent of list ordering within a priority tier only insofar as the
// first match in list order wins inside a tier.
func (rs Ruleset) Pick(voices []Voice) (Voice, bool) {
	var family []Voice
	for _, v := range voices {
		if containsAny(normalizeLang(v.Lang), rs.Family) {
			family = append(family, v)
		}
	}
	if len(family) == 0 {
		return Voice{}, false
	}
	for _, r := range rs.Rules {
		for _, v := range family {
			if r.matches(v) {
				return v, true
			}
		}
	}
	return family[0], true
}

// DefaultMandarinRuleset ranks voices for Taiwanese Mandarin. The name lists
// are tuning data, not structure; adjust them per platform without touching
// the picker.
func DefaultMandarinRuleset() Ruleset {
	return Ruleset{
		Family: []string{"zh", "cmn", "zho"},
		Rules: []Rule{
			{NameAny: []string{"HsiaoChen", "YunJhe"}},          // Edge natural voices for Taiwan
			{NameAny: []string{"Mei-Jia", "Sin-Ji"}},            // macOS/iOS high quality
			{NameAny: []string{"Google"}, LangAny: []string{"tw"}},
			{NameAny: []string{"台灣", "Taiwan"}},
			{NameAny: []string{"Natural", "Online", "Network"}}, // any online voice in the family
			{Network: true},
			{LangExact: []string{"zh-tw"}},
			{LangAny: []string{"cn"}}, // mainland dialect beats no Mandarin at all
		},
	}
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
