package gameserver

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys double as the English text.
const (
	msgVictory         = "Victory! Gained %d experience and %d coins."
	msgDefeat          = "Defeat. You were badly wounded."
	msgFled            = "You fled from combat."
	msgFleeFailed      = "You failed to flee."
	msgAlreadyFinished = "Combat is already finished."

	msgInvalidInput  = "Invalid move."
	msgNotFound      = "Combat not found."
	msgBusy          = "The combat is being updated, try again."
	msgWrongMode     = "This action is not available in this combat."
	msgTooWeak       = "You are too weak to fight. Recover first."
	msgNoPlayer      = "Player not found."
	msgNoFreeStats   = "You have no free stat points."
	msgUnknownStat   = "Unknown stat."
	msgUnauthorized  = "Authentication required."
	msgInternalError = "Something went wrong."
)

var supportedTags = []language.Tag{language.English, language.Russian}

var matcher = language.NewMatcher(supportedTags)

func init() {
	for key, text := range map[string]string{
		msgVictory:         "Победа! Получено %d опыта и %d монет.",
		msgDefeat:          "Поражение. Вы тяжело ранены.",
		msgFled:            "Вы сбежали из боя.",
		msgFleeFailed:      "Сбежать не удалось.",
		msgAlreadyFinished: "Бой уже завершен.",
		msgInvalidInput:    "Недопустимый ход.",
		msgNotFound:        "Бой не найден.",
		msgBusy:            "Бой обновляется, попробуйте еще раз.",
		msgWrongMode:       "Это действие недоступно в этом бою.",
		msgTooWeak:         "Вы слишком слабы для боя. Сначала восстановитесь.",
		msgNoPlayer:        "Игрок не найден.",
		msgNoFreeStats:     "У вас нет свободных очков характеристик.",
		msgUnknownStat:     "Неизвестная характеристика.",
		msgUnauthorized:    "Требуется авторизация.",
		msgInternalError:   "Что-то пошло не так.",
	} {
		if err := message.SetString(language.Russian, key, text); err != nil {
			panic(err)
		}
	}
}

// ResolveTag picks the best supported language for the request's Accept-Language
// header, defaulting to English.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return language.English
	}
	accept := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if accept == "" {
		return language.English
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := matcher.Match(tags...)
	return supportedTags[idx]
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// NoticeText renders the notice of v in the printer's language. It is empty for
// a turn that left the combat running.
func NoticeText(p *message.Printer, v *View) string {
	switch v.Notice {
	case NoticeVictory:
		return p.Sprintf(msgVictory, v.Settlement.XP, v.Settlement.Coins)
	case NoticeDefeat:
		return p.Sprintf(msgDefeat)
	case NoticeFled:
		return p.Sprintf(msgFled)
	case NoticeFleeFailed:
		return p.Sprintf(msgFleeFailed)
	case NoticeAlreadyFinished:
		return p.Sprintf(msgAlreadyFinished)
	}
	return ""
}
