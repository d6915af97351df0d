package history

import (
	"golang.org/x/text/language"
)

// DefaultLanguage is reported when no UI language is known.
const DefaultLanguage = "en"

// StaticLocale reports a fixed, configured language.
type StaticLocale struct {
	code string
}

// NewStaticLocale normalizes lang (a BCP 47 tag such as "de-AT") to its base
// language code. An empty or unparseable tag yields DefaultLanguage.
func NewStaticLocale(lang string) StaticLocale {
	tag, err := language.Parse(lang)
	if err != nil || tag == language.Und {
		return StaticLocale{code: DefaultLanguage}
	}
	base, conf := tag.Base()
	if conf == language.No {
		return StaticLocale{code: DefaultLanguage}
	}
	return StaticLocale{code: base.String()}
}

func (l StaticLocale) LanguageCode() string {
	return l.code
}
