package bot

import "fmt"

// User-facing texts. The audience is Russian-speaking.

func startText(suffix string) string {
	return "Привет! Я бот для отправки и приёма подписанных документов.\n\n" +
		"1. Я пришлю вам шаблон документа.\n" +
		"2. Вы скачаете его, подпишете (на бумаге или электронно).\n" +
		"3. Потом отправите мне обратно подписанный документ.\n\n" +
		"ВАЖНО:\n" +
		"Когда будете отправлять подписанный файл, ОБЯЗАТЕЛЬНО напишите в подписи к файлу " +
		"ваше имя и фамилию (например: «Иван Иванов»).\n" +
		fmt.Sprintf("Я сохраню файл на Google Диске под именем ИМЯ_%s.pdf ", suffix) +
		"(или с другим расширением, если у файла не PDF)."
}

const templateHintText = "Отправляю шаблон документа.\n" +
	"После подписи пришлите его мне обратно файлом.\n\n" +
	"Не забудьте указать ваше имя и фамилию в подписи к файлу."

const templateMissingText = "Извините, шаблон документа пока не настроен на стороне сервера."

const usageText = "Чтобы получить шаблон документа, отправьте /document.\n" +
	"Чтобы отправить подписанный документ, пришлите его как файл (PDF/фото) и " +
	"укажите ваше имя в подписи."

const onlyCommandsText = "Я понимаю только команды /start, /document и файлы (документы/фото)."

func missingCaptionText(suffix string) string {
	return "Я получил файл, но не вижу вашего имени в подписи.\n\n" +
		"Пожалуйста, отправьте файл ещё раз и в подписи к файлу укажите ваше имя и фамилию, " +
		"например: «Иван Иванов».\n" +
		fmt.Sprintf("Тогда я сохраню файл как ИМЯ_%s.* на Google Диске.", suffix)
}

const unrecognizedFileText = "Не удалось распознать файл. Пришлите, пожалуйста, документ ещё раз."

func fileTooLargeText(maxBytes int64) string {
	return fmt.Sprintf("Файл слишком большой. Пришлите, пожалуйста, файл размером до %d МБ.", maxBytes>>20)
}

const savedText = "Спасибо! Файл принят и сохранён."

const saveFailedText = "Произошла ошибка при сохранении файла. Попробуйте, пожалуйста, позже."
