package email

import (
	"errors"
	"sync"
)

// State состояние кнопки отправки
type State string

const (
	StateIdle    State = "idle"
	StateBusy    State = "busy"
	StateSuccess State = "success"
	StateError   State = "error"
)

// ErrBusy действие уже выполняется
var ErrBusy = errors.New("action is already in progress")

// TriggerView состояние кнопки для отображения
type TriggerView struct {
	State    State  `json:"state"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// Trigger кнопка действия: idle → busy → (success | error) → idle
type Trigger struct {
	mu       sync.Mutex
	state    State
	label    string
	original string
}

// NewTrigger создает кнопку с исходной подписью
func NewTrigger(label string) *Trigger {
	return &Trigger{state: StateIdle, label: label, original: label}
}

// Begin переводит кнопку в busy и меняет подпись. Пока кнопка занята, возвращает ErrBusy.
func (t *Trigger) Begin(busyLabel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateBusy {
		return ErrBusy
	}
	t.state = StateBusy
	t.label = busyLabel
	return nil
}

// Succeed завершает действие; label: временная подпись подтверждения (пустая означает исходную)
func (t *Trigger) Succeed(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateSuccess
	if label == "" {
		label = t.original
	}
	t.label = label
}

// Fail завершает действие с ошибкой и восстанавливает подпись
func (t *Trigger) Fail() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateError
	t.label = t.original
}

// Release возвращает кнопку в исходное состояние
func (t *Trigger) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateIdle
	t.label = t.original
}

// View текущее состояние
func (t *Trigger) View() TriggerView {
	t.mu.Lock()
	defer t.mu.Unlock()

	return TriggerView{
		State:    t.state,
		Label:    t.label,
		Disabled: t.state == StateBusy,
	}
}
