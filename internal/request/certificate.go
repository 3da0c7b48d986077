package request

import (
	"time"

	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/picker"
	"github.com/pitabwire/shinsei/model"
)

// Certificate application types.
const (
	ApplicationPre  = "pre"
	ApplicationPost = "post"
)

var applicationOptions = []model.Option{
	{Value: ApplicationPre, Label: "取得前申請"},
	{Value: ApplicationPost, Label: "取得後申請"},
}

const sectionExam = "examDateSection"

// Certificate is the qualification application form. The exam date is only
// asked for applications made before the exam.
type Certificate struct {
	*form.Base
}

// NewCertificate builds the certificate form.
func NewCertificate() *Certificate {
	return &Certificate{Base: form.NewBase(form.Definition{
		ID:             CertificateID,
		Title:          "資格申請",
		SuccessMessage: successMessage("資格申請"),
		Sections:       []string{sectionExam},
		Discriminators: []form.Discriminator{{
			Field:  "applicationType",
			Reveal: map[string][]string{ApplicationPre: {sectionExam}},
		}},
		Fields: []form.Field{
			{
				ID: "applicationType", Label: "申請種別", Input: form.InputRadio,
				Options: applicationOptions, Default: ApplicationPre,
				Rules: []form.Rule{
					form.Required("申請種別を選択して下さい"),
					form.OneOf(applicationOptions, "申請種別を選択して下さい"),
				},
			},
			{
				ID: "certificateName", Label: "資格名", Input: form.InputText, MaxLength: 50,
				Rules: []form.Rule{
					form.Required("資格名を入力して下さい"),
					form.MaxLength(50, "資格名は50文字以内で入力して下さい"),
				},
			},
			{
				ID: "examDate", Label: "受験日", Input: form.InputDate, Section: sectionExam,
				Rules: []form.Rule{form.Required("受験日を入力して下さい")},
			},
			{
				ID: "certificateFile", Label: "申請書", Input: form.InputFile,
				Rules: []form.Rule{form.FileRequired("申請書を添付して下さい")},
			},
		},
		Pickers: func(_ time.Time, set *picker.Set) {
			set.Attach("examDate", picker.Date())
		},
	})}
}

// BuildConfirmation summarizes the application.
func (c *Certificate) BuildConfirmation() form.Payload {
	s := c.State
	return form.NewBuilder("資格申請の確認").
		Line("申請種別", c.Label("applicationType")).
		Line("資格名", s.Value("certificateName")).
		When(c.Sections.Visible(sectionExam), "受験日", s.Value("examDate")).
		Line("申請書", form.FileNames(s.Files("certificateFile"))).
		Payload()
}
