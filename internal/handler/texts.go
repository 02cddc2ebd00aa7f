package handler

// User-facing texts for the onboarding flow.

const msgWelcome = "Привет! 👋\n\n" +
	"Рады видеть тебя на нашем марафоне!\n\n" +
	"Чтобы участвовать, подпишись на каналы марафона и его ведущих, " +
	"а затем нажми кнопку ниже."

const msgSubscribePrompt = msgWelcome +
	"\n\n⚠️ Пожалуйста, подпишись на все каналы выше, затем нажми кнопку."

const msgRegistration = "Регистрация успешна! 🎉\n\n" +
	"Теперь ты участница марафона. Напоминания об эфирах будут " +
	"приходить сюда, в этот чат. До встречи на эфире!"

const msgNotSubscribed = "❌ Ты еще не подписана на все каналы. " +
	"Пожалуйста, подпишись и попробуй снова."

const msgAdminUnavailable = "⚠️ Административная команда недоступна"

const msgNoPermission = "❌ У вас нет прав для выполнения этой команды"
