// Package i18n negotiates the caller's locale and holds the few
// server-generated messages callers see.
package i18n

import (
	"golang.org/x/text/language"
)

const (
	MsgInitializing = "initializing"
	MsgProcessing   = "processing"
	MsgStatusFailed = "status_failed"
)

// Supported locales; the first entry is the fallback.
var supported = []language.Tag{
	language.English,
	language.Chinese,
}

var matcher = language.NewMatcher(supported)

var catalog = map[string]map[string]string{
	"en": {
		MsgInitializing: "Initializing video generation...",
		MsgProcessing:   "Processing...",
		MsgStatusFailed: "Unable to fetch video generation status",
	},
	"zh": {
		MsgInitializing: "正在初始化视频生成...",
		MsgProcessing:   "处理中...",
		MsgStatusFailed: "无法获取视频生成状态",
	},
}

// Match picks the best supported locale for an Accept-Language style value.
// An explicit fallback is used when nothing matches.
func Match(acceptLanguage, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Normalize(fallback)
	}
	tag, _, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Normalize(fallback)
	}
	base, _ := tag.Base()
	return Normalize(base.String())
}

// Normalize maps any locale string onto a supported catalog key.
func Normalize(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	if _, ok := catalog[base.String()]; ok {
		return base.String()
	}
	return "en"
}

// Message returns the localized text for key, falling back to English.
func Message(locale, key string) string {
	if msgs, ok := catalog[Normalize(locale)]; ok {
		if m, ok := msgs[key]; ok {
			return m
		}
	}
	return catalog["en"][key]
}
