package utils

import (
	"os"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

// WelcomeMessage is the greeting returned by the root endpoint
var WelcomeMessage = &i18n.Message{
	ID:    "greeting.welcome",
	Other: "Welcome to vaccination drive",
}

var messageFiles = []string{"en.yaml", "zh_tw.yaml"}

var bundle = newBundle()

func newBundle() *i18n.Bundle {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	if err := b.AddMessages(language.English, WelcomeMessage); err != nil {
		panic(err)
	}
	return b
}

// InitI18NBundle loads the message files found in dir on top of the
// built-in English messages. Missing files are skipped.
func InitI18NBundle(dir string) error {
	b := newBundle()
	for _, name := range messageFiles {
		file := path.Join(dir, name)
		if _, err := os.Stat(file); os.IsNotExist(err) {
			log.WithField("prefix", "i18n").Warnf("message file not found: %s", file)
			continue
		}
		if _, err := b.LoadMessageFile(file); err != nil {
			return err
		}
	}
	bundle = b
	return nil
}

func NewLocalizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, langs...)
}

// Localize returns the message in the first matching language of langs,
// falling back to the default text of msg.
func Localize(msg *i18n.Message, langs ...string) string {
	text, err := NewLocalizer(langs...).Localize(&i18n.LocalizeConfig{
		DefaultMessage: msg,
	})
	if err != nil {
		log.WithField("prefix", "i18n").WithError(err).Warnf("can not localize %s", msg.ID)
		return msg.Other
	}
	return text
}
