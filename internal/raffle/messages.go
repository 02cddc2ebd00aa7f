package raffle

import (
	"fmt"
	"strings"

	"marathon-bot/internal/model"
)

var placeMedals = map[int]string{
	1: "🥇",
	2: "🥈",
	3: "🥉",
}

// ResultsMessage renders the ranked results announcement.
func ResultsMessage(winners []model.RaffleWinner) string {
	var b strings.Builder
	b.WriteString("🎁 Результаты розыгрыша!\n\n")
	b.WriteString("Поздравляем победительниц:\n\n")

	for _, w := range winners {
		medal := placeMedals[w.PrizePlace]
		if medal == "" {
			medal = fmt.Sprintf("%d место:", w.PrizePlace)
		}
		fmt.Fprintf(&b, "%s %s — %s\n", medal, w.DisplayName(), w.PrizeAmount)
	}

	b.WriteString("\nПобедительницам напишем в личные сообщения. ")
	b.WriteString("Спасибо всем за участие в марафоне! 💛")
	return b.String()
}
