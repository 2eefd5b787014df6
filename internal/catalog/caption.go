package catalog

import (
	"strings"
	"unicode"

	"github.com/GTDGit/pazar_api/internal/models"
)

// Default caption labels.
const (
	DefaultLabelStockCode = "Stok Kodu"
	DefaultLabelSizeRange = "Beden Aralığı"
	DefaultLabelWhatsapp  = "Whatsapp"
)

// MaxImages is the most images a single post carries.
const MaxImages = 10

var spaceEscaper = strings.NewReplacer(" ", "%20")

// TelegramCaption formats a grouped product for Telegram. The phone and
// WhatsApp lines are left out when not configured. settings may be nil.
func TelegramCaption(p *models.GroupedProduct, settings *models.UserSettings) string {
	var s models.UserSettings
	if settings != nil {
		s = *settings
	}

	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteString("\n" + orDefault(s.LabelStockCode, DefaultLabelStockCode) + ": " + p.StockCode)
	b.WriteString("\n" + orDefault(s.LabelSizeRange, DefaultLabelSizeRange) + ": " + p.Variants)
	if phone := strings.TrimSpace(s.ContactPhone); phone != "" {
		b.WriteString("\n📞 " + phone)
	}
	if wa := WhatsappLink(s.ContactWhatsapp); wa != "" {
		b.WriteString("\n" + orDefault(s.LabelWhatsapp, DefaultLabelWhatsapp) + ": " + wa)
	}
	return b.String()
}

// InstagramCaption is the suggested caption for an Instagram post, followed
// by hashtags when given.
func InstagramCaption(p *models.GroupedProduct, hashtags string) string {
	lines := []string{p.Name}
	if p.StockCode != "" {
		lines = append(lines, "🔖 Stok Kodu: "+p.StockCode)
	}
	if p.Variants != "" {
		lines = append(lines, "📦 "+p.Variants)
	}
	caption := strings.Join(lines, "\n")
	if h := strings.TrimSpace(hashtags); h != "" {
		caption += "\n\n" + h
	}
	return strings.TrimSpace(caption)
}

// WhatsappLink returns a wa.me link for a phone number. Values that are
// already URLs are kept as is.
func WhatsappLink(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, "http") {
		return v
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, v)
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits
}

// CleanImageURLs trims the list, caps it at MaxImages, prefixes https:// when
// no scheme is present and escapes spaces.
func CleanImageURLs(urls []string) []string {
	out := make([]string, 0, min(len(urls), MaxImages))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if len(out) == MaxImages {
			break
		}
		if !strings.HasPrefix(u, "http") {
			u = "https://" + strings.TrimPrefix(u, "//")
		}
		out = append(out, spaceEscaper.Replace(u))
	}
	return out
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
