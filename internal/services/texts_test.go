package services

import (
	"strings"
	"testing"

	"github.com/tbourn/go-relay-bot/internal/utils"
)

func TestTexts_English(t *testing.T) {
	tx := NewTexts("en", "NegahdarBot", "https://t.me/+promo")

	if got := tx.NotFound(); got != "❌ Code not found. Please check with the admin." {
		t.Fatalf("NotFound: %q", got)
	}
	if got := tx.Delivered(20); !strings.Contains(got, "20 seconds") {
		t.Fatalf("Delivered: %q", got)
	}
	if got := tx.Promo(); !strings.HasSuffix(got, "https://t.me/+promo") {
		t.Fatalf("Promo: %q", got)
	}
	if got := tx.Welcome(20); !strings.Contains(got, "NegahdarBot") {
		t.Fatalf("Welcome: %q", got)
	}
	if got := tx.PostSaved(5, "L"); got != "New post #5 saved!\nLink: L" {
		t.Fatalf("PostSaved: %q", got)
	}
}

func TestTexts_PostSavedCodeRoundTrips(t *testing.T) {
	for _, lang := range []string{"en", "fa"} {
		got := NewTexts(lang, "Bot", "p").PostSaved(1234, "L")
		if !strings.Contains(got, "#1234 ") {
			t.Fatalf("%s: code not written as plain digits: %q", lang, got)
		}
		start := strings.Index(got, "#") + 1
		field := strings.Fields(got[start:])[0]
		if code, ok := utils.ParseCode(field); !ok || code != 1234 {
			t.Fatalf("%s: %q does not parse back as a code", lang, field)
		}
	}
}

func TestTexts_PersianDefault(t *testing.T) {
	tx := NewTexts("fa", "Bot", "p")
	if got := tx.NotFound(); !strings.Contains(got, "یافت نشد") {
		t.Fatalf("NotFound: %q", got)
	}
	if got := tx.Failure(); got == NewTexts("en", "Bot", "p").Failure() {
		t.Fatalf("expected a Persian failure text")
	}
}

func TestTexts_UnknownLanguageFallsBack(t *testing.T) {
	if got := NewTexts("xx", "Bot", "p").NotFound(); got != keyNotFound {
		t.Fatalf("fallback: %q", got)
	}
}

func TestDeepLink(t *testing.T) {
	cases := map[string]string{
		"NegahdarBot":  "https://t.me/NegahdarBot?start=12",
		"@NegahdarBot": "https://t.me/NegahdarBot?start=12",
	}
	for name, want := range cases {
		if got := DeepLink(name, 12); got != want {
			t.Fatalf("DeepLink(%q): %q want %q", name, got, want)
		}
	}
}
