package request

import (
	"errors"
	"time"

	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/modal"
	"github.com/pitabwire/shinsei/internal/picker"
	"github.com/pitabwire/shinsei/internal/postal"
	"github.com/pitabwire/shinsei/model"
)

// ErrLookupInProgress is returned when a postal search is started while
// another one for the same form has not settled.
var ErrLookupInProgress = errors.New("request: address lookup already in progress")

var moveOutOptions = []model.Option{
	{Value: "submitted", Label: "提出済"},
	{Value: "not_submitted", Label: "未提出"},
}

const postalCodeMessage = "郵便番号は7桁の半角数字で入力してください。"

// Lookup dialog texts.
var (
	lookupMalformed = modal.Message{Title: "入力エラー", Body: "7桁の半角数字で郵便番号を入力してください。", IsError: true}
	lookupNotFound  = modal.Message{Title: "検索失敗", Body: "指定された郵便番号の住所が見つかりませんでした。", IsError: true}
	lookupFailed    = modal.Message{Title: "通信エラー", Body: "住所検索中にエラーが発生しました。", IsError: true}
)

// AddressChange is the change of address form. Its postal code search fills
// the new address field from a postal lookup.
type AddressChange struct {
	*form.Base
	inFlight bool
	epoch    uint64
}

// PendingLookup identifies a started search. Its result is only applied to
// the form state it was started from.
type PendingLookup struct {
	Code  string
	epoch uint64
}

// NewAddressChange builds the address change form.
func NewAddressChange() *AddressChange {
	return &AddressChange{Base: form.NewBase(form.Definition{
		ID:             AddressChangeID,
		Title:          "住所変更",
		SuccessMessage: successMessage("住所変更"),
		Fields: []form.Field{
			{
				ID: "changeDate", Label: "日付", Input: form.InputDate,
				Rules: []form.Rule{form.Required("日付を入力してください。")},
			},
			{
				ID: "postalCode", Label: "郵便番号", Input: form.InputText, MaxLength: 7,
				Rules: []form.Rule{
					form.Required(postalCodeMessage),
					form.Pattern(`^\d{7}$`, postalCodeMessage),
				},
			},
			{
				ID: "newAddress", Label: "新住所", Input: form.InputText, MaxLength: 100,
				Rules: []form.Rule{
					form.Required("新住所を入力してください。"),
					form.MaxLength(100, "新住所は100文字以内で入力してください。"),
				},
			},
			{
				ID: "addressDetails", Label: "番地以降", Input: form.InputText, MaxLength: 50,
				Rules: []form.Rule{form.MaxLength(50, "番地以降は50文字以内で入力してください。")},
			},
			{
				ID: "nearestStation", Label: "最寄駅", Input: form.InputText, MaxLength: 20,
				Rules: []form.Rule{
					form.Required("最寄駅を入力してください。"),
					form.MaxLength(20, "最寄駅は20文字以内で入力してください。"),
				},
			},
			{
				ID: "moveOutNotice", Label: "住民票転移届", Input: form.InputRadio,
				Options: moveOutOptions, Default: "submitted",
				Rules: []form.Rule{
					form.Required("住民票転移届の状況を選択してください。"),
					form.OneOf(moveOutOptions, "住民票転移届の状況を選択してください。"),
				},
			},
		},
		Pickers: func(_ time.Time, set *picker.Set) {
			set.Attach("changeDate", picker.Date())
		},
	})}
}

// Initialize restores the defaults and forgets any unsettled search.
func (a *AddressChange) Initialize(now time.Time) {
	a.epoch++
	a.inFlight = false
	a.Base.Initialize(now)
}

// Reset is Initialize.
func (a *AddressChange) Reset(now time.Time) {
	a.Initialize(now)
}

// LookupInFlight reports whether a search has started and not completed.
func (a *AddressChange) LookupInFlight() bool {
	return a.inFlight
}

// BeginLookup checks the entered postal code. A malformed code yields the
// dialog to show and no lookup; otherwise the search is marked in flight.
func (a *AddressChange) BeginLookup() (PendingLookup, *modal.Message, error) {
	if a.inFlight {
		return PendingLookup{}, nil, ErrLookupInProgress
	}
	code, err := postal.NormalizeCode(a.State.Value("postalCode"))
	if err != nil {
		msg := lookupMalformed
		return PendingLookup{}, &msg, nil
	}
	a.inFlight = true
	return PendingLookup{Code: code, epoch: a.epoch}, nil, nil
}

// CompleteLookup applies the outcome of a search started by BeginLookup and
// returns the dialog to show, if any. A found address also replaces the
// entered code with its normalized form. Outcomes of searches started before
// the last reset are dropped.
func (a *AddressChange) CompleteLookup(p PendingLookup, addr postal.Address, err error) *modal.Message {
	if p.epoch != a.epoch {
		return nil
	}
	a.inFlight = false
	var msg modal.Message
	switch {
	case err == nil:
		a.State.Set("postalCode", p.Code)
		a.State.Set("newAddress", addr.Full())
		return nil
	case errors.Is(err, postal.ErrNotFound):
		msg = lookupNotFound
	default:
		msg = lookupFailed
	}
	return &msg
}

// AbandonLookup settles a search without applying its outcome.
func (a *AddressChange) AbandonLookup(p PendingLookup) {
	if p.epoch == a.epoch {
		a.inFlight = false
	}
}

// View reports whether a search is running.
func (a *AddressChange) View() form.View {
	v := a.Base.View()
	v.Extra = map[string]any{"lookup_in_flight": a.inFlight}
	return v
}

func (a *AddressChange) BuildConfirmation() form.Payload {
	s := a.State
	return form.NewBuilder("住所変更の確認").
		Line("日付", s.Value("changeDate")).
		Line("郵便番号", s.Value("postalCode")).
		Line("新住所", s.Value("newAddress")).
		LineOr("番地以降", s.Value("addressDetails"), form.NotEntered).
		Line("最寄駅", s.Value("nearestStation")).
		Line("住民票転移届", a.Label("moveOutNotice")).
		Payload()
}
