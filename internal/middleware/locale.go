package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lzhlsy00/video-gen/internal/i18n"
)

const localLocale = "locale"

// Locale picks the response language from ?lang= or Accept-Language.
func Locale(fallback string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locale := ""
		if lang := c.Query("lang"); lang != "" {
			locale = i18n.Normalize(lang)
		} else {
			locale = i18n.Match(c.Get(fiber.HeaderAcceptLanguage), fallback)
		}
		c.Locals(localLocale, locale)
		return c.Next()
	}
}

// GetLocale extracts the negotiated locale from context
func GetLocale(c *fiber.Ctx) string {
	if locale, ok := c.Locals(localLocale).(string); ok {
		return locale
	}
	return "en"
}
