package models

// Ключи таблицы settings.
const (
	SettingAbsenceThreshold = "absence_threshold"
	SettingAdminPIN         = "admin_pin"
	SettingLanguage         = "language"
	SettingSummaryPath      = "summary_export_path"
)

// Settings — типизированный снимок операторских настроек.
// Загружается один раз на старте и передаётся компонентам явно,
// вместо строковых обращений к таблице по всему коду.
type Settings struct {
	AbsenceThreshold int
	AdminPINHash     string // '' — PIN ещё не настроен
	Language         string
	SummaryPath      string
}
