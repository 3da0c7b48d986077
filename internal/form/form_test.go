package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/shinsei/internal/modal"
	"github.com/pitabwire/shinsei/internal/picker"
	"github.com/pitabwire/shinsei/model"
)

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

// leaveForm is a small controller exercising a discriminator, a presence
// rule and a file field.
type leaveForm struct {
	*Base
}

func newLeaveForm() *leaveForm {
	kinds := []model.Option{{Value: "0", Label: "有給"}, {Value: "1", Label: "代休"}}
	return &leaveForm{Base: NewBase(Definition{
		ID:             "leave",
		Title:          "休暇",
		SuccessMessage: "休暇が正常に送信されました！",
		Sections:       []string{"substitute", "note2"},
		Discriminators: []Discriminator{{Field: "kind", Reveal: map[string][]string{"1": {"substitute"}}}},
		Presences:      []Presence{{Field: "note1", Section: "note2"}},
		Fields: []Field{
			{ID: "date", Label: "日付", Input: InputDate, Rules: []Rule{Required("日付を入力してください。")}},
			{ID: "kind", Label: "事由", Input: InputRadio, Options: kinds, Default: "0", Rules: []Rule{OneOf(kinds, "事由を選択してください。")}},
			{ID: "substituteDate", Label: "代休消化日", Input: InputDate, Section: "substitute", Rules: []Rule{Required("代休消化日を入力してください。")}},
			{ID: "note1", Label: "備考1", Input: InputText},
			{ID: "note2", Label: "備考2", Input: InputText, Section: "note2", Rules: []Rule{MaxLength(3, "3文字以内")}},
			{ID: "attachment", Label: "添付", Input: InputFile, Rules: []Rule{FileRequired("添付してください。")}},
		},
		Pickers: func(_ time.Time, set *picker.Set) {
			set.Attach("date", picker.Date())
		},
	})}
}

func (f *leaveForm) BuildConfirmation() Payload {
	return NewBuilder(ConfirmationTitle(f.Title())).
		Line("日付", f.State.Value("date")).
		Line("事由", f.Label("kind")).
		When(f.Sections.Visible("substitute"), "代休消化日", f.State.Value("substituteDate")).
		LineOr("備考1", f.State.Value("note1"), NotEntered).
		Payload()
}

func fill(t *testing.T, f *Flow, kv ...string) {
	t.Helper()
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, f.Input(kv[i], kv[i+1]))
	}
}

type recordingSubmitter struct {
	subs []Submission
	err  error
}

func (r *recordingSubmitter) Submit(_ context.Context, sub Submission) error {
	if r.err != nil {
		return r.err
	}
	r.subs = append(r.subs, sub)
	return nil
}

func newTestFlow(sub Submitter) (*Flow, *modal.Manager) {
	m := modal.NewManager()
	return NewFlow(newLeaveForm(), m, sub, WithClock(func() time.Time { return testNow }), WithOwner("sid-1", "user123")), m
}

func TestRules_EmptyOptionalValuesPass(t *testing.T) {
	s := NewState()
	for _, r := range []Rule{
		Pattern(`^\d{7}$`, "p"),
		Length(2, 5, "l"),
		OneOf([]model.Option{{Value: "a"}}, "o"),
		Check("c", func(string) bool { return false }),
		RequiredWhen("kind", "3", "w"),
	} {
		assert.True(t, r.Passes(s, "x"), "rule %s should pass on empty value", r.Kind)
	}
	assert.False(t, Required("r").Passes(s, "x"))
	assert.False(t, FileRequired("f").Passes(s, "x"))
}

func TestRules_RequiredTrimsWhitespace(t *testing.T) {
	s := NewState()
	s.Set("x", "  \t ")
	assert.False(t, Required("r").Passes(s, "x"))
	s.Set("x", " a ")
	assert.True(t, Required("r").Passes(s, "x"))
}

func TestRules_LengthCountsCharacters(t *testing.T) {
	s := NewState()
	s.Set("x", "東京都港区")
	assert.True(t, MaxLength(5, "m").Passes(s, "x"))
	s.Set("x", "東京都港区芝")
	assert.False(t, MaxLength(5, "m").Passes(s, "x"))
	assert.False(t, Length(7, 0, "m").Passes(s, "x"))
}

func TestRules_RequiredWhenFollowsDiscriminator(t *testing.T) {
	s := NewState()
	r := RequiredWhen("reasonType", "3", "遅刻時間を選択してください。")
	s.Set("reasonType", "3")
	assert.False(t, r.Passes(s, "lateTime"))
	s.Set("reasonType", "0")
	assert.True(t, r.Passes(s, "lateTime"))
}

func TestRuleSet_CollectsAllFieldsInDeclarationOrder(t *testing.T) {
	rs := RuleSet{
		{Field: "b", Rules: []Rule{Required("b required"), MaxLength(1, "b long")}},
		{Field: "a", Rules: []Rule{Required("a required")}},
		{Field: "h", Section: "hidden", Rules: []Rule{Required("h required")}},
	}
	res := rs.Validate(NewState(), func(string) bool { return false })

	require.False(t, res.OK())
	assert.Equal(t, []string{"b", "a"}, res.Fields())
	assert.Equal(t, "b required", res.Message("b"))
	assert.Empty(t, res.Message("h"))
	assert.Equal(t, string(KindRequired), res.Errors()[0].Code)
}

func TestSections_DiscriminatorRevealsExactlyMappedSet(t *testing.T) {
	s := NewSections("a", "b", "c")
	d := Discriminator{Field: "k", Reveal: map[string][]string{"1": {"a"}, "2": {"b", "c"}}}

	d.Apply(s, "2")
	assert.Equal(t, []string{"b", "c"}, s.VisibleSet())
	d.Apply(s, "1")
	assert.Equal(t, []string{"a"}, s.VisibleSet())
	d.Apply(s, "9")
	assert.Empty(t, s.VisibleSet())
	assert.True(t, s.Visible("undeclared"))
}

func TestSections_PresenceIsSymmetric(t *testing.T) {
	s := NewSections("t2")
	p := Presence{Field: "t1", Section: "t2"}
	p.Apply(s, "新宿")
	assert.True(t, s.Visible("t2"))
	p.Apply(s, "   ")
	assert.False(t, s.Visible("t2"))
}

func TestBuilder_PlaceholdersAndGroups(t *testing.T) {
	p := NewBuilder("確認").
		Line("日付", "2026/03/10").
		Group("主経路").
		LineOr("通勤時間", "", NotEntered).
		When(false, "skipped", "x").
		Payload()

	require.Len(t, p.Lines, 2)
	assert.Equal(t, "確認", p.Title)
	assert.Equal(t, Line{Group: "", Label: "日付", Value: "2026/03/10"}, p.Lines[0])
	assert.Equal(t, Line{Group: "主経路", Label: "通勤時間", Value: NotEntered}, p.Lines[1])
	assert.Equal(t, NotEntered, Translate(map[string]string{"0": "有給"}, "7"))
}

func TestBase_InputUnknownAndWrongKind(t *testing.T) {
	c := newLeaveForm()
	c.Initialize(testNow)

	assert.ErrorIs(t, c.Input("nope", "x"), ErrUnknownField)
	assert.ErrorIs(t, c.Input("attachment", "x"), ErrFieldType)
	assert.ErrorIs(t, c.AttachFiles("date", []FileRef{{Name: "a.pdf"}}), ErrFieldType)
}

func TestBase_HiddenSectionsExcludedFromValidationAndSnapshot(t *testing.T) {
	c := newLeaveForm()
	c.Initialize(testNow)
	require.NoError(t, c.Input("date", "2026/03/10"))
	require.NoError(t, c.Input("kind", "1"))
	require.NoError(t, c.Input("substituteDate", "2026/03/20"))
	require.NoError(t, c.AttachFiles("attachment", []FileRef{{Name: "a.pdf", Size: 10}}))

	assert.True(t, c.Validate().OK())

	require.NoError(t, c.Input("kind", "0"))
	values, files := c.Snapshot()
	assert.NotContains(t, values, "substituteDate")
	assert.NotContains(t, values, "note2")
	assert.Equal(t, "0", values["kind"])
	assert.Len(t, files["attachment"], 1)

	require.NoError(t, c.Input("kind", "1"))
	require.NoError(t, c.Input("substituteDate", ""))
	assert.Equal(t, []string{"substituteDate"}, c.Validate().Fields())
}

func TestBase_HidingSectionClearsValuesAndCascades(t *testing.T) {
	b := NewBase(Definition{
		ID:             "cascade",
		Title:          "連鎖",
		Sections:       []string{"detail", "extra"},
		Discriminators: []Discriminator{{Field: "kind", Reveal: map[string][]string{"1": {"detail"}}}},
		Presences:      []Presence{{Field: "detail", Section: "extra"}},
		Fields: []Field{
			{ID: "kind", Label: "区分", Input: InputRadio, Default: "0"},
			{ID: "detail", Label: "詳細", Input: InputText, Section: "detail"},
			{ID: "extra", Label: "補足", Input: InputText, Section: "extra"},
			{ID: "proof", Label: "証明", Input: InputFile, Section: "detail"},
		},
	})
	b.Initialize(testNow)

	require.NoError(t, b.Input("kind", "1"))
	require.NoError(t, b.Input("detail", "詳細あり"))
	require.NoError(t, b.Input("extra", "補足あり"))
	require.NoError(t, b.AttachFiles("proof", []FileRef{{Name: "証明.pdf", Size: 10}}))
	assert.Equal(t, []string{"detail", "extra"}, b.Sections.VisibleSet())

	require.NoError(t, b.Input("kind", "0"))
	assert.Empty(t, b.Sections.VisibleSet())
	assert.Empty(t, b.State.Value("detail"))
	assert.Empty(t, b.State.Value("extra"))
	assert.Empty(t, b.State.Files("proof"))

	require.NoError(t, b.Input("kind", "1"))
	assert.Equal(t, []string{"detail"}, b.Sections.VisibleSet())
	assert.Empty(t, b.State.Value("detail"))
}

func TestFlow_ValidationFailureThenConfirm(t *testing.T) {
	sub := &recordingSubmitter{}
	f, m := newTestFlow(sub)
	ctx := context.Background()
	assert.Equal(t, PhaseIdle, f.Phase())

	res, err := f.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseValidationFailed, f.Phase())
	assert.Equal(t, []string{"date", "attachment"}, res.Fields())
	assert.False(t, m.IsOpen(modal.KindConfirmation))

	v := f.View()
	assert.Len(t, v.Errors, 2)
	assert.Equal(t, "日付を入力してください。", v.Fields[0].Error)

	fill(t, f, "date", "2026/03/10", "note1", "メモ")
	require.NoError(t, f.AttachFiles("attachment", []FileRef{{Name: "a.pdf"}}))
	assert.Equal(t, PhaseEditing, f.Phase())

	res, err = f.Submit(ctx)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, PhaseConfirmPending, f.Phase())

	cv := m.View().Confirmation
	require.NotNil(t, cv)
	assert.Equal(t, "休暇の確認", cv.Title)
	payload, ok := cv.Body.(Payload)
	require.True(t, ok)
	assert.Equal(t, []Line{
		{Label: "日付", Value: "2026/03/10"},
		{Label: "事由", Value: "有給"},
		{Label: "備考1", Value: "メモ"},
	}, payload.Lines)

	assert.ErrorIs(t, f.Input("date", "x"), ErrBusy)
	_, err = f.Submit(ctx)
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, m.Confirm(ctx))
	assert.Equal(t, PhaseSubmitted, f.Phase())
	require.Len(t, sub.subs, 1)
	got := sub.subs[0]
	assert.Equal(t, "leave", got.WorkflowID)
	assert.Equal(t, "user123", got.UserID)
	assert.Equal(t, "sid-1", got.SessionID)
	assert.Equal(t, testNow, got.SubmittedAt)
	assert.Equal(t, "2026/03/10", got.Fields["date"])

	mv := m.View().Message
	require.NotNil(t, mv)
	assert.Equal(t, SuccessTitle, mv.Title)
	assert.Equal(t, "休暇が正常に送信されました！", mv.Body)

	require.NoError(t, m.Close(ctx))
	assert.Equal(t, PhaseIdle, f.Phase())
	assert.False(t, f.Controller().Dirty())
	v = f.View()
	assert.Empty(t, v.Errors)
	assert.Empty(t, v.Fields[0].Value)
	assert.Equal(t, "0", v.Fields[1].Value)
}

func TestFlow_CancelKeepsValues(t *testing.T) {
	f, m := newTestFlow(&recordingSubmitter{})
	ctx := context.Background()
	fill(t, f, "date", "2026/03/10", "kind", "1", "substituteDate", "2026/03/11")
	require.NoError(t, f.AttachFiles("attachment", []FileRef{{Name: "a.pdf"}}))

	_, err := f.Submit(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Cancel(ctx))

	assert.Equal(t, PhaseEditing, f.Phase())
	values, _ := f.Controller().Snapshot()
	assert.Equal(t, "2026/03/11", values["substituteDate"])
	require.NoError(t, f.Input("note1", "x"))
}

func TestFlow_SubmitterFailureReturnsToEditing(t *testing.T) {
	f, m := newTestFlow(&recordingSubmitter{err: errors.New("down")})
	ctx := context.Background()
	fill(t, f, "date", "2026/03/10")
	require.NoError(t, f.AttachFiles("attachment", []FileRef{{Name: "a.pdf"}}))

	_, err := f.Submit(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Confirm(ctx))

	assert.Equal(t, PhaseEditing, f.Phase())
	mv := m.View().Message
	require.NotNil(t, mv)
	assert.True(t, mv.IsError)
	assert.Equal(t, FailureTitle, mv.Title)
	_, ok := f.LastSubmission()
	assert.False(t, ok)
	assert.Equal(t, "2026/03/10", f.Controller().View().Fields[0].Value)
}

func TestFlow_ResetRestoresSectionsAndPickers(t *testing.T) {
	f, m := newTestFlow(&recordingSubmitter{})
	ctx := context.Background()
	fill(t, f, "date", "2026/03/10", "kind", "1", "substituteDate", "2026/03/11", "note1", "a", "note2", "b")
	require.NoError(t, f.AttachFiles("attachment", []FileRef{{Name: "a.pdf"}}))
	assert.ElementsMatch(t, []string{"substitute", "note2"}, f.View().Sections)

	_, err := f.Submit(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Confirm(ctx))
	require.NoError(t, m.Close(ctx))

	v := f.View()
	assert.Empty(t, v.Sections)
	require.Len(t, v.Pickers, 1)
	assert.Equal(t, "date", v.Pickers[0].Field)
	for _, fv := range v.Fields {
		assert.Empty(t, fv.Files, fv.ID)
	}
}
