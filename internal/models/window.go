package models

import "time"

// DefaultWindowDays es el tamaño de la ventana cuando el caller no envía límites
const DefaultWindowDays = 30

// DateWindow es un rango de fechas de calendario inclusivo [From, To].
type DateWindow struct {
	From time.Time
	To   time.Time
}

// NewDateWindow completa los límites faltantes:
// sin ambos → últimos 30 días hasta hoy; sin To → hoy; sin From → To-30 días.
func NewDateWindow(from, to *time.Time, today time.Time) DateWindow {
	today = truncateDay(today)

	w := DateWindow{To: today}
	if to != nil {
		w.To = truncateDay(*to)
	}
	if from != nil {
		w.From = truncateDay(*from)
	} else {
		w.From = w.To.AddDate(0, 0, -DefaultWindowDays)
	}
	return w
}

// Contains: las fechas no interpretables (nil) siempre están dentro.
func (w DateWindow) Contains(d *time.Time) bool {
	if d == nil {
		return true
	}
	day := truncateDay(*d)
	return !day.Before(w.From) && !day.After(w.To)
}

// Valid indica si From <= To
func (w DateWindow) Valid() bool {
	return !w.From.After(w.To)
}

func (w DateWindow) String() string {
	return w.From.Format(DateLayout) + ".." + w.To.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
