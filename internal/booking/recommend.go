package booking

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/desk-reservation/internal/metrics"
	"github.com/iliyamo/desk-reservation/internal/model"
)

// Scoring weights.
const (
	WeightPersonal    = 3
	WeightNucleo      = 2
	WeightCoordenacao = 1

	// DefaultHistoryDays is the personal-history window.
	DefaultHistoryDays = 30
)

// Tier names the dominant signal behind a suggestion.
type Tier string

const (
	TierFrequent    Tier = "frequent"
	TierNucleo      Tier = "nucleo"
	TierCoordenacao Tier = "coordenacao"
	TierGeneric     Tier = "generic"
)

// Reason is the text shown to the user for a tier.
func (t Tier) Reason() string {
	switch t {
	case TierFrequent:
		return "Sua mesa mais frequente"
	case TierNucleo:
		return "Perto do seu núcleo"
	case TierCoordenacao:
		return "Perto da sua coordenação"
	}
	return "Mesa disponível"
}

// Suggestion is the single desk proposed to a user.
type Suggestion struct {
	Desk   model.Desk `json:"desk"`
	Score  int        `json:"score"`
	Tier   Tier       `json:"tier"`
	Reason string     `json:"reason"`
}

// Recommender ranks the free desks of a date for one user.
type Recommender struct {
	catalog     *Catalog
	ledger      *Ledger
	metrics     *metrics.Metrics
	now         Clock
	historyDays int
	tracer      trace.Tracer
}

// NewRecommender wires a Recommender.
func NewRecommender(catalog *Catalog, ledger *Ledger, opts ...Option) *Recommender {
	o := buildOptions(opts)
	return &Recommender{
		catalog:     catalog,
		ledger:      ledger,
		metrics:     o.metrics,
		now:         o.now,
		historyDays: o.historyDays,
		tracer:      otel.Tracer(tracerName),
	}
}

type score struct {
	personal    int
	nucleo      int
	coordenacao int
}

func (s score) total() int { return s.personal + s.nucleo + s.coordenacao }

func (s score) tier() Tier {
	switch {
	case s.personal > 0:
		return TierFrequent
	case s.nucleo >= WeightNucleo:
		return TierNucleo
	case s.coordenacao >= WeightCoordenacao:
		return TierCoordenacao
	}
	return TierGeneric
}

// Suggest returns the best free desk for the actor on date, or nil when
// the actor (non-admin) already has a booking or nothing is free.
//
// Each free desk scores +3 if it is the actor's most used desk over the
// history window, +2 per nucleo colleague desk nearby and +1 per
// coordenacao colleague desk nearby.  Ties go to the lowest desk number.
// A failing profile or colleague lookup skips only that signal.
func (r *Recommender) Suggest(ctx context.Context, actor Actor, date model.Date) (sug *Suggestion, err error) {
	ctx, span := r.tracer.Start(ctx, "booking.suggest", trace.WithAttributes(
		attribute.String("booking.user", actor.UserName),
		attribute.String("booking.date", date.String()),
	))
	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, Message(err))
		}
		span.End()
		r.metrics.ObserveOperation("suggest", Outcome(err), started)
		if sug != nil {
			r.metrics.Suggestion(string(sug.Tier))
		}
	}()

	if err := validateActor(actor); err != nil {
		return nil, err
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	desks, err := r.catalog.ListActiveDesks(ctx)
	if err != nil {
		return nil, err
	}
	records, err := r.ledger.RecordsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if !actor.Admin {
		if _, booked := activeBookingOf(records, actor.UserName); booked {
			return nil, nil
		}
	}
	candidates := FreeDesks(ResolveAvailability(desks, records))
	if len(candidates) == 0 {
		return nil, nil
	}

	scores := make(map[string]*score, len(candidates))
	for _, d := range candidates {
		scores[d.Name] = &score{}
	}

	if top, ok := r.favouriteDesk(ctx, actor.UserName, desks); ok {
		if s, free := scores[top]; free {
			s.personal += WeightPersonal
		}
	}

	profile, err := r.ledger.User(ctx, actor.UserName)
	switch {
	case err == nil:
		r.addOrgUnit(ctx, actor.UserName, model.OrgUnitNucleo, profile.NucleoID, date, desks, candidates, scores)
		r.addOrgUnit(ctx, actor.UserName, model.OrgUnitCoordenacao, profile.CoordenacaoID, date, desks, candidates, scores)
	case errors.Is(err, ErrNotFound):
	default:
		log.Printf("recommend: profile of %s unavailable, skipping org units: %v", actor.UserName, err)
	}

	best := candidates[0]
	for _, d := range candidates[1:] {
		bs, ds := scores[best.Name].total(), scores[d.Name].total()
		if ds > bs || (ds == bs && d.Number < best.Number) {
			best = d
		}
	}
	s := scores[best.Name]
	tier := s.tier()
	return &Suggestion{Desk: best, Score: s.total(), Tier: tier, Reason: tier.Reason()}, nil
}

// favouriteDesk returns the desk the user booked most in the history
// window.  Equal counts go to the lowest desk number; desks no longer in
// the catalog rank after catalog desks, then by name.
func (r *Recommender) favouriteDesk(ctx context.Context, userName string, desks []model.Desk) (string, bool) {
	since := model.DateOf(r.now()).AddDays(-r.historyDays)
	history, err := r.ledger.RecordsForUserSince(ctx, userName, since)
	if err != nil {
		log.Printf("recommend: history of %s unavailable, skipping: %v", userName, err)
		return "", false
	}
	counts := make(map[string]int)
	for _, h := range history {
		counts[h.DeskName]++
	}
	number := make(map[string]int, len(desks))
	for _, d := range desks {
		number[d.Name] = d.Number
	}
	rank := func(name string) int {
		if n, ok := number[name]; ok {
			return n
		}
		return math.MaxInt
	}

	var (
		top   string
		count int
	)
	for name, n := range counts {
		switch {
		case n > count:
		case n == count && rank(name) < rank(top):
		case n == count && rank(name) == rank(top) && name < top:
		default:
			continue
		}
		top, count = name, n
	}
	return top, count > 0
}

// addOrgUnit adds weight(field) to every candidate within the
// neighbourhood of a desk booked on date by a colleague sharing the
// actor's org unit.  Contributions accumulate per colleague desk.
func (r *Recommender) addOrgUnit(ctx context.Context, userName string, field model.OrgUnitField, unit *string, date model.Date, desks, candidates []model.Desk, scores map[string]*score) {
	if unit == nil || *unit == "" {
		return
	}
	colleagues, err := r.ledger.UsersInOrgUnit(ctx, field, *unit, userName)
	if err != nil {
		log.Printf("recommend: %s colleagues unavailable, skipping: %v", field, err)
		return
	}
	if len(colleagues) == 0 {
		return
	}
	booked, err := r.ledger.RecordsForUsersOnDate(ctx, colleagues, date)
	if err != nil {
		log.Printf("recommend: %s colleague bookings unavailable, skipping: %v", field, err)
		return
	}

	byName := make(map[string]model.Desk, len(desks))
	for _, d := range desks {
		byName[d.Name] = d
	}
	seen := make(map[string]bool)
	for _, b := range booked {
		cd, ok := byName[b.DeskName]
		if !ok || seen[cd.Name] {
			continue
		}
		seen[cd.Name] = true
		for _, d := range candidates {
			if !Near(d, cd) {
				continue
			}
			s := scores[d.Name]
			if field == model.OrgUnitNucleo {
				s.nucleo += WeightNucleo
			} else {
				s.coordenacao += WeightCoordenacao
			}
		}
	}
}

// Near reports whether b lies in the neighbourhood of a: at most one
// row and two columns apart.
func Near(a, b model.Desk) bool {
	return abs(a.GridRow-b.GridRow) <= 1 && abs(a.GridCol-b.GridCol) <= 2
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
