// Package i18n wraps go-i18n bundles for translating message ids.
package i18n

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

type Translator struct {
	bundle *goi18n.Bundle
}

func New(defaultLang language.Tag) *Translator {
	bundle := goi18n.NewBundle(defaultLang)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	return &Translator{bundle: bundle}
}

// LoadFS registers every message file matching pattern in fsys. The
// language is taken from the file name, e.g. "fr.json".
func (t *Translator) LoadFS(fsys fs.FS, pattern string) error {
	files, err := fs.Glob(fsys, pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no message files match %q", pattern)
	}
	for _, f := range files {
		if _, err := t.bundle.LoadMessageFileFS(fsys, f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Translate localizes messageID for an Accept-Language style lang value.
// It returns "" when the id is unknown so callers can fall back.
func (t *Translator) Translate(lang, messageID string, data map[string]any) string {
	if t == nil || messageID == "" {
		return ""
	}
	localizer := goi18n.NewLocalizer(t.bundle, lang)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		// A message missing in lang still comes back in the default
		// language alongside MessageNotFoundErr.
		var notFound *goi18n.MessageNotFoundErr
		if errors.As(err, &notFound) && msg != "" {
			return msg
		}
		return ""
	}
	return msg
}

// Languages lists the tags that have messages loaded.
func (t *Translator) Languages() []language.Tag {
	return t.bundle.LanguageTags()
}
