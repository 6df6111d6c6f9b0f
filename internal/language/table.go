package language

// equivalents maps ISO 639-1 codes to their equivalent ISO 639-2 forms
// (bibliographic and terminological where they differ) and English language
// names. Providers are inconsistent about which form they report, so the
// table is consulted in both directions when matching.
var equivalents = map[string][]string{
	"ar": {"ara", "arabic"},
	"bg": {"bul", "bulgarian"},
	"cs": {"cze", "ces", "czech"},
	"da": {"dan", "danish"},
	"de": {"ger", "deu", "german"},
	"el": {"gre", "ell", "greek"},
	"en": {"eng", "english"},
	"es": {"spa", "spanish"},
	"fa": {"per", "fas", "persian"},
	"fi": {"fin", "finnish"},
	"fr": {"fre", "fra", "french"},
	"he": {"heb", "hebrew"},
	"hi": {"hin", "hindi"},
	"hr": {"hrv", "croatian"},
	"hu": {"hun", "hungarian"},
	"id": {"ind", "indonesian"},
	"it": {"ita", "italian"},
	"ja": {"jpn", "japanese"},
	"ko": {"kor", "korean"},
	"nl": {"dut", "nld", "dutch"},
	"no": {"nor", "norwegian"},
	"pl": {"pol", "polish"},
	"pt": {"por", "portuguese"},
	"ro": {"rum", "ron", "romanian"},
	"ru": {"rus", "russian"},
	"sk": {"slo", "slk", "slovak"},
	"sl": {"slv", "slovenian"},
	"sq": {"alb", "sqi", "albanian"},
	"sr": {"srp", "serbian"},
	"sv": {"swe", "swedish"},
	"th": {"tha", "thai"},
	"tr": {"tur", "turkish"},
	"uk": {"ukr", "ukrainian"},
	"vi": {"vie", "vietnamese"},
	"zh": {"chi", "zho", "chinese"},
}

// canonical indexes every code and alias in equivalents back to its
// two-letter head, so equivalence checks are a pair of map lookups.
var canonical = map[string]string{}

func init() {
	for head, aliases := range equivalents {
		canonical[head] = head
		for _, alias := range aliases {
			canonical[alias] = head
		}
	}
}

// equivalent reports whether the table links a and b to the same language.
// Codes absent from the table are never equivalent to anything.
func equivalent(a, b string) bool {
	ca, ok := canonical[a]
	if !ok {
		return false
	}
	cb, ok := canonical[b]
	if !ok {
		return false
	}
	return ca == cb
}
