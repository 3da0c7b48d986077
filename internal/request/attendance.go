package request

import (
	"time"

	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/picker"
	"github.com/pitabwire/shinsei/model"
)

// Attendance reason codes.
const (
	ReasonPaidLeave       = "0"
	ReasonSubstituteLeave = "1"
	ReasonAbsence         = "2"
	ReasonLate            = "3"
	ReasonEarlyLeave      = "4"
	ReasonMiddleLeave     = "5"
	ReasonBereavement     = "6"
)

var reasonOptions = []model.Option{
	{Value: ReasonPaidLeave, Label: "有給"},
	{Value: ReasonSubstituteLeave, Label: "代休"},
	{Value: ReasonAbsence, Label: "欠勤"},
	{Value: ReasonLate, Label: "遅刻"},
	{Value: ReasonEarlyLeave, Label: "早退"},
	{Value: ReasonMiddleLeave, Label: "中抜け"},
	{Value: ReasonBereavement, Label: "忌引き"},
}

const (
	sectionSubstitute  = "substituteDateSection"
	sectionLate        = "lateTimeSection"
	sectionEarlyLeave  = "earlyLeaveTimeSection"
	sectionMiddleLeave = "middleLeaveTimeSection"
)

// Attendance is the attendance notice form. The reason code decides which
// one of the substitute date, late minutes, early leave time or middle leave
// minutes sections is shown.
type Attendance struct {
	*form.Base
}

// NewAttendance builds the attendance form.
func NewAttendance() *Attendance {
	minutes := minuteOptions()
	return &Attendance{Base: form.NewBase(form.Definition{
		ID:             AttendanceID,
		Title:          "勤怠連絡",
		SuccessMessage: successMessage("勤怠連絡"),
		Sections:       []string{sectionSubstitute, sectionLate, sectionEarlyLeave, sectionMiddleLeave},
		Discriminators: []form.Discriminator{{
			Field: "reasonType",
			Reveal: map[string][]string{
				ReasonSubstituteLeave: {sectionSubstitute},
				ReasonLate:            {sectionLate},
				ReasonEarlyLeave:      {sectionEarlyLeave},
				ReasonMiddleLeave:     {sectionMiddleLeave},
			},
		}},
		Fields: []form.Field{
			{
				ID: "contactDate", Label: "日付", Input: form.InputDate,
				Rules: []form.Rule{form.Required("日付を入力してください。")},
			},
			{
				ID: "reasonType", Label: "事由（勤怠内容）", Input: form.InputRadio,
				Options: reasonOptions, Default: ReasonPaidLeave,
				Rules: []form.Rule{
					form.Required("事由を選択してください。"),
					form.OneOf(reasonOptions, "事由を選択してください。"),
				},
			},
			{
				ID: "lateTime", Label: "遅刻時間", Input: form.InputSelect,
				Section: sectionLate, Options: minutes,
				Rules: []form.Rule{
					form.RequiredWhen("reasonType", ReasonLate, "遅刻時間を選択してください。"),
					form.OneOf(minutes, "遅刻時間を選択してください。"),
				},
			},
			{
				ID: "earlyLeaveTime", Label: "早退時間 (HH:mm)", Input: form.InputText,
				Section: sectionEarlyLeave, MaxLength: 5,
				Rules: []form.Rule{
					form.RequiredWhen("reasonType", ReasonEarlyLeave, "早退時間を入力してください。"),
					form.Pattern(`^([01][0-9]|2[0-3]):[0-5][0-9]$`, "早退時間はHH:mm形式で入力してください。"),
				},
			},
			{
				ID: "middleLeaveTime", Label: "中抜け時間", Input: form.InputSelect,
				Section: sectionMiddleLeave, Options: minutes,
				Rules: []form.Rule{
					form.RequiredWhen("reasonType", ReasonMiddleLeave, "中抜け時間を選択してください。"),
					form.OneOf(minutes, "中抜け時間を選択してください。"),
				},
			},
			{
				ID: "substituteDate", Label: "代休消化日", Input: form.InputDate,
				Section: sectionSubstitute,
				Rules: []form.Rule{
					form.RequiredWhen("reasonType", ReasonSubstituteLeave, "代休消化日を入力してください。"),
				},
			},
			{
				ID: "reason", Label: "理由", Input: form.InputTextarea, MaxLength: 256,
				Rules: []form.Rule{
					form.Required("理由を入力してください。"),
					form.MaxLength(256, "理由は256文字以内で入力してください。"),
				},
			},
		},
		Pickers: func(_ time.Time, set *picker.Set) {
			set.Attach("contactDate", picker.Date())
			set.Attach("substituteDate", picker.Date())
		},
	})}
}

// BuildConfirmation summarizes the notice.
func (a *Attendance) BuildConfirmation() form.Payload {
	s := a.State
	reason := s.Value("reasonType")
	return form.NewBuilder("勤怠連絡の確認").
		Line("日付", s.Value("contactDate")).
		Line("事由", form.Translate(reasonLabels, reason)).
		When(reason == ReasonLate, "遅刻時間", s.Value("lateTime")+"分").
		When(reason == ReasonEarlyLeave, "早退時間", s.Value("earlyLeaveTime")).
		When(reason == ReasonMiddleLeave, "中抜け時間", s.Value("middleLeaveTime")+"分").
		When(reason == ReasonSubstituteLeave, "代休消化日", s.Value("substituteDate")).
		Line("理由", s.Value("reason")).
		Payload()
}

var reasonLabels = optionLabels(reasonOptions)

func optionLabels(opts []model.Option) map[string]string {
	m := make(map[string]string, len(opts))
	for _, o := range opts {
		m[o.Value] = o.Label
	}
	return m
}
