package domain

import "strings"

// Level is a proficiency tier
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Levels lists all supported levels in ascending order
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// Valid reports whether the level is one of the supported tiers
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// ParseLevel normalizes a level name, anything unknown becomes beginner
func ParseLevel(s string) Level {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if l.Valid() {
		return l
	}
	return LevelBeginner
}

// Language is a supported target language
type Language string

const (
	LangChinese  Language = "zh-CN"
	LangJapanese Language = "ja-JP"
	LangSpanish  Language = "es-ES"
)

// PrimaryLanguage is used for subscribers without a language
const PrimaryLanguage = LangChinese

// Languages lists all supported languages
var Languages = []Language{LangChinese, LangJapanese, LangSpanish}

// ParseLanguage normalizes language codes and names, e.g. "zh", "chinese", "ja-jp", "Spanish"
func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zh-cn", "zh", "chinese":
		return LangChinese, true
	case "ja-jp", "ja", "japanese":
		return LangJapanese, true
	case "es-es", "es", "spanish":
		return LangSpanish, true
	}
	return "", false
}

// DisplayName returns the English name of the language
func (l Language) DisplayName() string {
	switch l {
	case LangJapanese:
		return "Japanese"
	case LangSpanish:
		return "Spanish"
	default:
		return "Chinese"
	}
}

// PronunciationLabel names the pronunciation column for vocabulary
func (l Language) PronunciationLabel() string {
	switch l {
	case LangJapanese:
		return "Romaji"
	case LangSpanish:
		return "Pronunciation"
	default:
		return "Pinyin"
	}
}

// SubjectPrefix is the mail subject prefix
func (l Language) SubjectPrefix() string {
	return "Daily " + l.DisplayName()
}

// PromptPhrase describes the target language and its romanization for generation prompts
func (l Language) PromptPhrase() string {
	switch l {
	case LangJapanese:
		return "Japanese (use natural Japanese script; put Hepburn romaji in the pinyin field)"
	case LangSpanish:
		return "Spanish (Castilian; put a simple pronunciation guide in the pinyin field)"
	default:
		return "Mandarin Chinese (simplified characters; put tone-marked pinyin in the pinyin field)"
	}
}
