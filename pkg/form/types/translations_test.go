package types

import "testing"

func TestTranslationsResolve(t *testing.T) {
	trans := Translations{"en": "Weight", "fr": "Poids"}

	t.Run("preferred locale wins", func(t *testing.T) {
		if got := trans.Resolve([]string{"fr", "en"}); got != "Poids" {
			t.Errorf("unexpected translation: %s", got)
		}
	})

	t.Run("falls back through the preference list", func(t *testing.T) {
		if got := trans.Resolve([]string{"de", "en"}); got != "Weight" {
			t.Errorf("unexpected translation: %s", got)
		}
	})

	t.Run("empty translations resolve to empty", func(t *testing.T) {
		var none Translations
		if got := none.Resolve([]string{"en"}); got != "" {
			t.Errorf("unexpected translation: %s", got)
		}
	})
}

func TestTranslationsMatches(t *testing.T) {
	trans := Translations{"en": "Cat", "fr": "chat"}

	if !trans.Matches("CHAT") {
		t.Error("match should be case insensitive")
	}
	if !trans.Matches("cat") {
		t.Error("match should cover all locales")
	}
	if trans.Matches("dog") {
		t.Error("unexpected match")
	}
}
