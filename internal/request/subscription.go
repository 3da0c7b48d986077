package request

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/picker"
)

// MaxRoutes is the number of candidate routes a subscription may carry.
const MaxRoutes = 3

// RouteLimitMessage is shown when a route beyond MaxRoutes is requested.
const RouteLimitMessage = "候補経路は3つまでしか追加できません。"

// ErrRouteLimit is returned by AddRoute once MaxRoutes routes exist.
var ErrRouteLimit = errors.New("request: candidate route limit reached")

const (
	maxAmountDigits     = 5
	sectionTransit2     = "transitStation2Section"
	commuteTimePattern  = `^[0-9:]+$`
	amountPattern       = `^[0-9]+$`
	commuteTimeMessage  = "半角数字とコロンのみで入力してください。"
	amountDigitsMessage = "半角数字で入力してください。"
	amountLengthMessage = "5桁以内で入力してください。"
	noTransitLabel      = "なし"
	routeGroupPrefix    = "routes."
)

// CoerceAmount keeps only ASCII digits and clamps the result to five.
func CoerceAmount(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			continue
		}
		if b.Len() == maxAmountDigits {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Subscription is the commuter pass purchase form: one primary route plus up
// to three candidate routes added on demand. Each route reveals its second
// transit station while its first one holds text.
type Subscription struct {
	*form.Base
	routes     int
	routeError string
}

// NewSubscription builds the subscription form.
func NewSubscription() *Subscription {
	s := &Subscription{}
	s.Base = form.NewBase(form.Definition{
		ID:             SubscriptionID,
		Title:          "定期購入",
		SuccessMessage: successMessage("定期購入申請"),
		Sections:       []string{sectionTransit2},
		Presences:      []form.Presence{{Field: "transitStation1", Section: sectionTransit2}},
		Fields: []form.Field{
			{
				ID: "purchaseDate", Label: "定期購入日", Input: form.InputDate, Group: "主経路",
				Rules: []form.Rule{form.Required("定期購入日を入力してください。")},
			},
			{
				ID: "nearestStation", Label: "最寄駅", Input: form.InputText, Group: "主経路", MaxLength: 20,
				Rules: []form.Rule{
					form.Required("最寄駅を入力してください。"),
					form.MaxLength(20, "最寄駅は20文字以内で入力してください。"),
				},
			},
			{
				ID: "destinationStation", Label: "目的駅", Input: form.InputText, Group: "主経路", MaxLength: 20,
				Rules: []form.Rule{
					form.Required("目的駅を入力してください。"),
					form.MaxLength(20, "目的駅は20文字以内で入力してください。"),
				},
			},
			{ID: "transitStation1", Label: "経由駅 1", Input: form.InputText, Group: "主経路"},
			{ID: "transitStation2", Label: "経由駅 2", Input: form.InputText, Group: "主経路", Section: sectionTransit2},
			{
				ID: "primaryCommuteTime", Label: "通勤時間", Input: form.InputTime, Group: "主経路",
				Rules: []form.Rule{
					form.Required("通勤時間を入力してください。"),
					form.Pattern(commuteTimePattern, commuteTimeMessage),
				},
			},
			{
				ID: "primaryAmount", Label: "金額", Input: form.InputNumber, Group: "主経路", MaxLength: maxAmountDigits,
				Rules: []form.Rule{
					form.Required("金額を入力してください。"),
					form.Pattern(amountPattern, amountDigitsMessage),
					form.MaxLength(maxAmountDigits, amountLengthMessage),
				},
			},
		},
		Pickers: func(now time.Time, set *picker.Set) {
			set.Attach("purchaseDate", picker.DateFrom(now))
			set.Attach("primaryCommuteTime", picker.Clock())
		},
	})
	return s
}

func routePrefix(n int) string {
	return fmt.Sprintf("%s%d.", routeGroupPrefix, n)
}

func isAmountField(id string) bool {
	return id == "primaryAmount" || (strings.HasPrefix(id, routeGroupPrefix) && strings.HasSuffix(id, ".amount"))
}

// Input coerces amount fields before storing them.
func (s *Subscription) Input(field, value string) error {
	if isAmountField(field) {
		value = CoerceAmount(value)
	}
	return s.Base.Input(field, value)
}

// Routes returns the number of candidate routes.
func (s *Subscription) Routes() int {
	return s.routes
}

// AddRoute appends a candidate route block with its own transit reveal rule
// and time picker.
func (s *Subscription) AddRoute() error {
	if s.routes >= MaxRoutes {
		s.routeError = RouteLimitMessage
		return ErrRouteLimit
	}
	s.routeError = ""
	s.routes++
	n := s.routes
	p := routePrefix(n)
	group := fmt.Sprintf("候補経路 %d", n)
	transit2 := p + "transit2"

	s.AddFields(
		form.Field{ID: p + "transitStation1", Label: "経由駅 1", Input: form.InputText, Group: group},
		form.Field{ID: p + "transitStation2", Label: "経由駅 2", Input: form.InputText, Group: group, Section: transit2},
		form.Field{
			ID: p + "commuteTime", Label: "通勤時間", Input: form.InputTime, Group: group,
			Rules: []form.Rule{form.Pattern(commuteTimePattern, commuteTimeMessage)},
		},
		form.Field{
			ID: p + "amount", Label: "金額", Input: form.InputNumber, Group: group, MaxLength: maxAmountDigits,
			Rules: []form.Rule{
				form.Pattern(amountPattern, amountDigitsMessage),
				form.MaxLength(maxAmountDigits, amountLengthMessage),
			},
		},
	)
	s.AddPresence(form.Presence{Field: p + "transitStation1", Section: transit2})
	s.Pickers.Attach(p+"commuteTime", picker.Clock())
	return nil
}

// Initialize drops every candidate route and restores the defaults.
func (s *Subscription) Initialize(now time.Time) {
	s.RemoveGroup(routeGroupPrefix)
	s.RestoreFields()
	s.routes = 0
	s.routeError = ""
	s.Base.Initialize(now)
}

// Reset is Initialize.
func (s *Subscription) Reset(now time.Time) {
	s.Initialize(now)
}

// transitLines lists the visible, non-blank transit stations of a route.
func (s *Subscription) transitLines(b *form.Builder, prefix string) {
	var stations []string
	for _, id := range []string{prefix + "transitStation1", prefix + "transitStation2"} {
		f, ok := s.Field(id)
		if !ok || !s.Visible(f) {
			continue
		}
		if v := s.State.Trimmed(id); v != "" {
			stations = append(stations, v)
		}
	}
	if len(stations) == 0 {
		b.Line("経由駅", noTransitLabel)
		return
	}
	for i, st := range stations {
		b.Line(fmt.Sprintf("経由駅%d", i+1), st)
	}
}

// BuildConfirmation summarizes the primary route and every candidate route.
func (s *Subscription) BuildConfirmation() form.Payload {
	st := s.State
	b := form.NewBuilder("定期購入申請の確認").
		Line("定期購入日", st.Value("purchaseDate")).
		Group("主経路").
		Line("最寄駅", st.Value("nearestStation")).
		Line("目的駅", st.Value("destinationStation"))
	s.transitLines(b, "")
	b.Line("通勤時間", st.Value("primaryCommuteTime")).
		Line("金額", st.Value("primaryAmount")+" 円")

	for n := 1; n <= s.routes; n++ {
		p := routePrefix(n)
		b.Group(fmt.Sprintf("候補経路 %d", n))
		s.transitLines(b, p)
		b.LineOr("通勤時間", st.Value(p+"commuteTime"), form.NotEntered)
		amount := form.NotEntered
		if v := st.Trimmed(p + "amount"); v != "" {
			amount = v + " 円"
		}
		b.Line("金額", amount)
	}
	return b.Payload()
}

// View adds the candidate route counters.
func (s *Subscription) View() form.View {
	v := s.Base.View()
	v.Extra = map[string]any{
		"routes":        s.routes,
		"max_routes":    MaxRoutes,
		"can_add_route": s.routes < MaxRoutes,
	}
	if s.routeError != "" {
		v.Extra["route_error"] = s.routeError
	}
	return v
}
