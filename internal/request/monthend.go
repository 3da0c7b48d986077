package request

import (
	"time"

	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/picker"
)

const processingMonthField = "processingMonth"

// MonthEnd is the month-end report form. The month defaults to the current
// one and must lie between the previous and the next month.
type MonthEnd struct {
	*form.Base
}

// NewMonthEnd builds the month-end form.
func NewMonthEnd() *MonthEnd {
	m := &MonthEnd{}
	m.Base = form.NewBase(form.Definition{
		ID:             MonthEndID,
		Title:          "月末処理",
		SuccessMessage: successMessage("月末処理"),
		Fields: []form.Field{
			{
				ID: processingMonthField, Label: "対象年月", Input: form.InputMonth,
				Rules: []form.Rule{
					form.Required("対象年月を選択してください。"),
					form.Check("対象年月は前月から翌月までの範囲で選択してください。", m.inRange),
				},
			},
			{
				ID: "reportFile", Label: "添付ファイル", Input: form.InputFile,
				Rules: []form.Rule{form.FileRequired("ファイルの添付が行われていません。")},
			},
		},
		Defaults: func(now time.Time) map[string]string {
			return map[string]string{processingMonthField: picker.Month(now).FormatTime(now)}
		},
		Pickers: func(now time.Time, set *picker.Set) {
			set.Attach(processingMonthField, picker.Month(now))
		},
	})
	return m
}

// inRange checks a month value against the attached picker's bounds.
func (m *MonthEnd) inRange(v string) bool {
	cfg, ok := m.Pickers.Lookup(processingMonthField)
	if !ok {
		return true
	}
	t, err := cfg.Parse(v, cfg.Min.Location())
	if err != nil {
		return false
	}
	return cfg.Within(t)
}

func (m *MonthEnd) BuildConfirmation() form.Payload {
	s := m.State
	return form.NewBuilder("月末処理の確認").
		Line("対象年月", s.Value(processingMonthField)).
		Line("添付ファイル", form.FileNames(s.Files("reportFile"))).
		Payload()
}
