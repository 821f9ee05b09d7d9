package domain

import "strings"

// forbiddenNameChars cannot appear in Drive file names produced by the bot.
var forbiddenNameChars = strings.NewReplacer(
	"/", "", `\`, "", ":", "", "*", "", "?", "", `"`, "", "<", "", ">", "", "|", "",
)

// SanitizeName turns a free-form caption into a file name fragment: whitespace
// runs become single underscores and path-hostile characters are removed.
func SanitizeName(raw string) string {
	name := strings.Join(strings.Fields(raw), "_")
	name = forbiddenNameChars.Replace(name)
	if name == "" {
		return "user"
	}
	return name
}

// FileExtension picks the extension (with leading dot) for a downloaded file.
// The original file name wins, photos default to .jpg, then Telegram's storage
// path is consulted and .bin is the last resort.
func FileExtension(originalName string, isPhoto bool, telegramPath string) string {
	if originalName != "" && strings.Contains(originalName, ".") {
		return "." + originalName[strings.LastIndex(originalName, ".")+1:]
	}
	if isPhoto {
		return ".jpg"
	}
	if strings.Contains(telegramPath, ".") {
		return "." + telegramPath[strings.LastIndex(telegramPath, ".")+1:]
	}
	return ".bin"
}

// SubmissionFilename builds the stored name NAME_SUFFIX.ext.
func SubmissionFilename(name, suffix, ext string) string {
	return name + "_" + suffix + ext
}
