package langcode

// UnknownLanguage is the display name returned when no name is known.
const UnknownLanguage = "unknown language"

// Chinese script verdicts. "cn" is simplified, "zh" is traditional.
const (
	Simplified  = "cn"
	Traditional = "zh"
)

// defaultAliases maps raw detector output to canonical codes. Every target
// is either absent from the table or maps to itself.
var defaultAliases = map[string]string{
	// Chinese
	"zh":      Traditional,
	"cn":      Simplified,
	"zh-cn":   Simplified,
	"zh_cn":   Simplified,
	"zh-sg":   Simplified,
	"zh-hans": Simplified,
	"zh-tw":   Traditional,
	"zh_tw":   Traditional,
	"zh-hk":   Traditional,
	"zh-mo":   Traditional,
	"zh-hant": Traditional,
	"cmn":     Traditional,
	"yue":     "yue",

	// Country codes used in place of language codes.
	"jp": "ja",
	"kr": "ko",
	"gr": "el",
	"ua": "uk",
	"cz": "cs",
	"dk": "da",
	"vn": "vi",
	"ee": "et",
	"rs": "sr",
	"by": "be",

	// Deprecated ISO 639 codes.
	"iw": "he",
	"in": "id",
	"ji": "yi",
	"jw": "jv",
	"mo": "ro",
	"sh": "sr",

	// Regional variants.
	"en-us":  "en",
	"en-gb":  "en",
	"en_us":  "en",
	"en_gb":  "en",
	"pt-br":  "pt",
	"pt-pt":  "pt",
	"es-mx":  "es",
	"es-419": "es",
	"fr-ca":  "fr",
	"nb":     "no",
	"nn":     "no",
	"fil":    "tl",

	// ISO 639-3 codes emitted by trigram detectors.
	"eng": "en",
	"spa": "es",
	"fra": "fr",
	"deu": "de",
	"rus": "ru",
	"jpn": "ja",
	"kor": "ko",
	"por": "pt",
	"ita": "it",
	"ara": "ar",
	"hin": "hi",
	"tur": "tr",
	"ukr": "uk",
	"pol": "pl",
	"nld": "nl",
	"vie": "vi",
	"tha": "th",
}

var defaultNames = map[string]string{
	Simplified:  "Simplified Chinese",
	Traditional: "Traditional Chinese",
	"yue":       "Cantonese",
	"en":        "English",
	"ja":        "Japanese",
	"ko":        "Korean",
	"es":        "Spanish",
	"fr":        "French",
	"de":        "German",
	"ru":        "Russian",
	"pt":        "Portuguese",
	"it":        "Italian",
	"ar":        "Arabic",
	"hi":        "Hindi",
	"tr":        "Turkish",
	"uk":        "Ukrainian",
	"pl":        "Polish",
	"nl":        "Dutch",
	"vi":        "Vietnamese",
	"th":        "Thai",
	"el":        "Greek",
	"cs":        "Czech",
	"da":        "Danish",
	"et":        "Estonian",
	"sr":        "Serbian",
	"be":        "Belarusian",
	"he":        "Hebrew",
	"id":        "Indonesian",
	"yi":        "Yiddish",
	"jv":        "Javanese",
	"ro":        "Romanian",
	"no":        "Norwegian",
	"tl":        "Tagalog",
	"sv":        "Swedish",
	"fi":        "Finnish",
	"hu":        "Hungarian",
	"fa":        "Persian",
	"ms":        "Malay",
	"bn":        "Bengali",
}
