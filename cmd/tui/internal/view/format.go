package view

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rupiah = message.NewPrinter(language.Indonesian)

// FormatRupiah renders a whole-rupiah amount with Indonesian digit
// grouping, e.g. 25000 -> "Rp 25.000".
func FormatRupiah(amount int64) string {
	return rupiah.Sprintf("Rp %d", amount)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDateTime includes the clock for progress timestamps.
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
