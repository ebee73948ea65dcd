package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalizeDefault(t *testing.T) {
	assert.Equal(t, "Welcome to vaccination drive", Localize(WelcomeMessage))
	assert.Equal(t, "Welcome to vaccination drive", Localize(WelcomeMessage, "fr"))
}

func TestLocalizeFromMessageFiles(t *testing.T) {
	assert.NoError(t, InitI18NBundle("../i18n"))

	assert.Equal(t, "Welcome to vaccination drive", Localize(WelcomeMessage, "en-US"))
	assert.Equal(t, "歡迎參加疫苗接種活動", Localize(WelcomeMessage, "zh-TW"))
}

func TestInitI18NBundleMissingDir(t *testing.T) {
	assert.NoError(t, InitI18NBundle("/nonexistent"))
	assert.Equal(t, "Welcome to vaccination drive", Localize(WelcomeMessage, "zh-TW"))
}
