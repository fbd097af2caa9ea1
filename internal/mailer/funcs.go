package mailer

import (
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var templateFuncs = template.FuncMap{
	"join":  strings.Join,
	"upper": strings.ToUpper,
	"money": func(amount int64) string {
		return decimal.NewFromInt(amount).StringFixed(2)
	},
	"datetime": func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04 MST")
	},
}
