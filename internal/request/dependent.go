package request

import (
	"time"

	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/picker"
	"github.com/pitabwire/shinsei/model"
)

var dependentTypeOptions = []model.Option{
	{Value: "register", Label: "登録"},
	{Value: "remove", Label: "解除"},
}

// Dependent is the dependent registration and removal form.
type Dependent struct {
	*form.Base
}

// NewDependent builds the dependent form.
func NewDependent() *Dependent {
	return &Dependent{Base: form.NewBase(form.Definition{
		ID:             DependentID,
		Title:          "扶養届け",
		SuccessMessage: successMessage("扶養届け"),
		Fields: []form.Field{
			{
				ID: "dependentApplicationType", Label: "申請区分", Input: form.InputRadio,
				Options: dependentTypeOptions, Default: "register",
				Rules: []form.Rule{
					form.Required("申請区分を選択してください。"),
					form.OneOf(dependentTypeOptions, "申請区分を選択してください。"),
				},
			},
			{
				ID: "dependentDate", Label: "日付", Input: form.InputDate,
				Rules: []form.Rule{form.Required("日付を入力してください。")},
			},
			{
				ID: "dependentRelationship", Label: "続柄", Input: form.InputText, MaxLength: 5,
				Rules: []form.Rule{
					form.Required("続柄を入力してください。"),
					form.MaxLength(5, "続柄は5文字以内で入力してください。"),
				},
			},
			{
				ID: "dependentReason", Label: "理由", Input: form.InputTextarea, MaxLength: 256,
				Rules: []form.Rule{
					form.Required("理由を入力してください。"),
					form.MaxLength(256, "理由は256文字以内で入力してください。"),
				},
			},
		},
		Pickers: func(_ time.Time, set *picker.Set) {
			set.Attach("dependentDate", picker.Date())
		},
	})}
}

func (d *Dependent) BuildConfirmation() form.Payload {
	s := d.State
	return form.NewBuilder("扶養届けの確認").
		Line("申請区分", d.Label("dependentApplicationType")).
		Line("日付", s.Value("dependentDate")).
		Line("続柄", s.Value("dependentRelationship")).
		Line("理由", s.Value("dependentReason")).
		Payload()
}
