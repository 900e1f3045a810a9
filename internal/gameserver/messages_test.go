package gameserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/cory-johannsen/arena/internal/game/reward"
)

func TestResolveTag(t *testing.T) {
	cases := map[string]language.Tag{
		"":                   language.English,
		"ru":                 language.Russian,
		"ru-RU,ru;q=0.9":     language.Russian,
		"de-DE,ru;q=0.5":     language.Russian,
		"fr-FR":              language.English,
		"en-US,en;q=0.9":     language.English,
		"not a language;;;=": language.English,
	}
	for header, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Accept-Language", header)
		}
		assert.Equal(t, want, ResolveTag(r), "header %q", header)
	}
	assert.Equal(t, language.English, ResolveTag(nil))
}

func TestNoticeText(t *testing.T) {
	en := Printer(language.English)
	ru := Printer(language.Russian)
	victory := &View{Notice: NoticeVictory, Settlement: reward.Result{Kind: reward.KindVictory, XP: 30, Coins: 2}}

	assert.Equal(t, "Victory! Gained 30 experience and 2 coins.", NoticeText(en, victory))
	assert.Equal(t, "Победа! Получено 30 опыта и 2 монет.", NoticeText(ru, victory))
	assert.Equal(t, "Бой уже завершен.", NoticeText(ru, &View{Notice: NoticeAlreadyFinished}))
	assert.Equal(t, "Defeat. You were badly wounded.", NoticeText(en, &View{Notice: NoticeDefeat}))
	assert.Empty(t, NoticeText(en, &View{}))
}
