package services

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	keyWelcome   = "Hi 👋 Welcome to %s!\nSend a post's numeric code here or open its deep link.\nEach post is sent to you temporarily (%d seconds), save it quickly."
	keyNotFound  = "❌ Code not found. Please check with the admin."
	keyDelivered = "✅ Message sent, it will be removed in %d seconds. Save it quickly."
	keyPromo     = "📌 Join the channel so you don't miss new content: %s"
	keyFailure   = "⚠️ The post could not be sent. Please try again later."
	keyPostSaved = "New post #%s saved!\nLink: %s"
)

var (
	catalogue = buildCatalogue()
	matcher   = language.NewMatcher([]language.Tag{language.English, language.Persian})
)

func buildCatalogue() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	fa := map[string]string{
		keyWelcome:   "سلام 👋 خوش اومدی به %s!\nبرای دیدن یک پست، کد عددی اون رو اینجا بفرست یا روی لینک deep-link کلیک کن.\nهر پست به‌صورت موقت (%d ثانیه) برایت فرستاده می‌شود، سریع ذخیره کن.",
		keyNotFound:  "❌ کد مورد نظر یافت نشد. لطفا از ادمین بررسی کنید.",
		keyDelivered: "✅ پیام ارسال شد، تا %d ثانیه حذف خواهد شد. سریع ذخیره کنید.",
		keyPromo:     "📌 عضو کانال شوید تا محتواهای جدید را از دست ندهید: %s",
		keyFailure:   "⚠️ خطا در ارسال پست. لطفا بعدا دوباره تلاش کنید.",
		keyPostSaved: "پست جدید #%s ذخیره شد!\nلینک: %s",
	}
	for key, text := range fa {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Persian, key, text)
	}
	return b
}

// Texts renders the user-facing strings in one language.
type Texts struct {
	printer   *message.Printer
	botName   string
	promoLink string
}

// NewTexts returns texts for lang (a BCP 47 tag). Unknown or unsupported
// languages fall back to English.
func NewTexts(lang, botName, promoLink string) *Texts {
	tag, _, _ := matcher.Match(language.Make(lang))
	return &Texts{
		printer:   message.NewPrinter(tag, message.Catalog(catalogue)),
		botName:   botName,
		promoLink: promoLink,
	}
}

func (t *Texts) Welcome(ttlSeconds int) string {
	return t.printer.Sprintf(keyWelcome, t.botName, ttlSeconds)
}

func (t *Texts) NotFound() string { return t.printer.Sprintf(keyNotFound) }

func (t *Texts) Delivered(ttlSeconds int) string {
	return t.printer.Sprintf(keyDelivered, ttlSeconds)
}

func (t *Texts) Promo() string { return t.printer.Sprintf(keyPromo, t.promoLink) }

func (t *Texts) Failure() string { return t.printer.Sprintf(keyFailure) }

// PostSaved is the operator notice for a freshly registered post. The code
// is an identifier, written in plain ASCII digits without grouping.
func (t *Texts) PostSaved(code int64, link string) string {
	return t.printer.Sprintf(keyPostSaved, strconv.FormatInt(code, 10), link)
}

// DeepLink builds the link that opens the bot with code as start payload.
// The code is always written with ASCII digits.
func DeepLink(botName string, code int64) string {
	return "https://t.me/" + strings.TrimPrefix(botName, "@") + "?start=" + strconv.FormatInt(code, 10)
}
