package notebook

import (
	"github.com/dshills/nbsense/internal/logging"
)

// EnsureLanguage sets the language tag in md to lang unless one is already
// present. It reports whether md was changed.
func EnsureLanguage(md Metadata, lang string, log *logging.Logger) bool {
	if log == nil {
		log = logging.Nop()
	}

	if existing, ok := md.Language(); ok {
		log.Info("language already defined and is: %s", existing)
		return false
	}

	md[MetadataLanguage] = lang
	log.Info("add metadata hint that language is %s", lang)
	return true
}
