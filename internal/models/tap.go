package models

// TapResultKind — закрытый набор исходов одного считывания карты.
// Вызвавший обязан обработать каждый вариант.
type TapResultKind int

const (
	TapInvalidCard TapResultKind = iota // номер не прошёл структурную проверку
	TapUnknownCard                      // карта не найдена — нужна регистрация
	TapNoSections                       // ученик без секций — нужен диалог назначения
	TapRecorded                         // отметка записана хотя бы по одной секции
	TapDuplicate                        // все сегодняшние секции уже отмечены
)

func (k TapResultKind) String() string {
	switch k {
	case TapInvalidCard:
		return "invalid_card"
	case TapUnknownCard:
		return "unknown_card"
	case TapNoSections:
		return "no_sections"
	case TapRecorded:
		return "recorded"
	case TapDuplicate:
		return "duplicate"
	}
	return "unknown"
}

// TapResult — всё, что нужно слою отображения после считывания.
type TapResult struct {
	Kind      TapResultKind
	CardID    string
	StudentID int64
	FirstName string
	LastName  string

	// Имена секций, отмеченных этим касанием, и уже отмеченных ранее.
	Marked        []string
	AlreadyMarked []string

	// Предупреждение: ученик числится неактивным (серия пропусков).
	Inactive bool

	// Сводка «посещено/всего» для баннера.
	Attended      int
	TotalSessions int

	Message string
}
