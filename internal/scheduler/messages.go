package scheduler

import "fmt"

// Reminder texts. Kept free of Markdown so delivery never fails on
// parse errors in user-provided names or dates.

// DayBeforeMessage renders the reminder sent a day before the broadcast.
func DayBeforeMessage(ev Event) string {
	return fmt.Sprintf(
		"⏰ Напоминание!\n\n"+
			"Уже завтра, %s в %s (мск) — эфир марафона «%s».\n\n"+
			"Не пропусти, будет важно! 💫",
		ev.StartsAt.Format("02.01"), ev.StartsAt.Format("15:04"), ev.Day,
	)
}

// HourBeforeMessage renders the reminder sent an hour before the broadcast.
func HourBeforeMessage(ev Event) string {
	return fmt.Sprintf(
		"🔥 Через час начинаем!\n\n"+
			"Эфир «%s» стартует в %s (мск).\n\n"+
			"Приготовь блокнот и ручку ✍️",
		ev.Day, ev.StartsAt.Format("15:04"),
	)
}

// FiveMinBeforeMessage renders the short last-call reminder.
func FiveMinBeforeMessage(ev Event) string {
	return fmt.Sprintf(
		"🚀 Через 5 минут начинаем эфир «%s»! Подключайся!",
		ev.Day,
	)
}

// AfterMessage renders the follow-up sent after the broadcast.
func AfterMessage(ev Event) string {
	return fmt.Sprintf(
		"💛 Спасибо, что была с нами на эфире «%s»!\n\n"+
			"Запись уже доступна в канале — если что-то пропустила, "+
			"обязательно посмотри. До встречи на следующем эфире!",
		ev.Day,
	)
}

// MarathonEndMessage is sent once at the configured campaign end.
const MarathonEndMessage = "🎉 Марафон завершён!\n\n" +
	"Спасибо, что прошла этот путь вместе с нами. " +
	"Все записи эфиров остаются в канале.\n\n" +
	"Следи за новостями — впереди розыгрыш призов среди участниц! 🎁"
