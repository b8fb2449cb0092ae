package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/attendance-terminal/internal/db"
	"github.com/Spok95/attendance-terminal/internal/models"
	"go.uber.org/zap"
)

// maxAttempts — бюджет попыток на один диалог аутентификации.
const maxAttempts = 5

var (
	// ErrLockout — бюджет попыток исчерпан, диалог нужно начать заново.
	ErrLockout = errors.New("превышено число попыток ввода PIN")
	// ErrPINNotSet — PIN ещё не настроен оператором.
	ErrPINNotSet = errors.New("PIN не настроен")
	// ErrWrongPIN — текущий PIN не подошёл при смене.
	ErrWrongPIN = errors.New("неверный PIN")
)

// Authenticator проверяет операторский PIN с защёлкой на 5 неудач.
// Счётчик живёт в памяти процесса и не переживает перезапуск диалога —
// этого достаточно, пока UI-поток один.
type Authenticator struct {
	database *sql.DB
	log      *zap.SugaredLogger
	attempts int
}

func New(database *sql.DB, log *zap.SugaredLogger) *Authenticator {
	return &Authenticator{database: database, log: log}
}

// Verify сверяет кандидата с хранимым значением. После пятой неудачи любой
// вызов, даже с верным PIN, возвращает ErrLockout до Reset().
func (a *Authenticator) Verify(ctx context.Context, candidate string) (bool, error) {
	if a.attempts >= maxAttempts {
		return false, ErrLockout
	}

	stored, err := db.GetSetting(ctx, a.database, models.SettingAdminPIN)
	if err != nil {
		return false, fmt.Errorf("чтение PIN: %w", err)
	}
	if stored == "" {
		return false, ErrPINNotSet
	}

	ok, legacy := VerifyPIN(candidate, stored)
	if !ok {
		a.attempts++
		a.log.Warnw("неверный PIN", "attempt", a.attempts)
		if a.attempts >= maxAttempts {
			a.log.Warnw("исчерпан бюджет попыток PIN")
			return false, ErrLockout
		}
		return false, nil
	}
	if legacy {
		a.log.Infow("PIN в легаси-формате, будет обновлён при смене")
	}
	a.attempts = 0
	return true, nil
}

// Remaining — сколько попыток осталось в текущем диалоге.
func (a *Authenticator) Remaining() int {
	if a.attempts >= maxAttempts {
		return 0
	}
	return maxAttempts - a.attempts
}

// Reset начинает диалог аутентификации заново.
func (a *Authenticator) Reset() { a.attempts = 0 }

// ChangePIN меняет PIN: сначала обязательная проверка текущего (принимается
// и легаси-формат), затем вывод и запись нового salted-значения. Смена —
// единственный путь апгрейда легаси-хэша.
func (a *Authenticator) ChangePIN(ctx context.Context, current, next string) error {
	ok, err := a.Verify(ctx, current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPIN
	}
	return a.storePIN(ctx, next)
}

// SetInitialPIN задаёт PIN, когда он ещё не настроен.
func (a *Authenticator) SetInitialPIN(ctx context.Context, pin string) error {
	stored, err := db.GetSetting(ctx, a.database, models.SettingAdminPIN)
	if err != nil {
		return err
	}
	if stored != "" {
		return errors.New("PIN уже настроен, используйте смену")
	}
	return a.storePIN(ctx, pin)
}

func (a *Authenticator) storePIN(ctx context.Context, pin string) error {
	hashed, err := HashPIN(pin)
	if err != nil {
		return err
	}
	if err := db.SetSetting(ctx, a.database, models.SettingAdminPIN, hashed); err != nil {
		return fmt.Errorf("запись PIN: %w", err)
	}
	a.log.Infow("PIN обновлён")
	return nil
}
