package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iliyamo/desk-reservation/internal/metrics"
	"github.com/iliyamo/desk-reservation/internal/model"
)

const suggestDate = "2026-01-20"

func newTestRecommender(st *memStore, opts ...Option) *Recommender {
	opts = append([]Option{WithClock(fixedClock("2026-01-19T08:00:00Z"))}, opts...)
	return NewRecommender(NewCatalog(st, nil), NewLedger(st, st, nil), opts...)
}

func suggest(t *testing.T, r *Recommender, user string) *Suggestion {
	t.Helper()
	s, err := r.Suggest(context.Background(), Actor{UserName: user}, model.MustDate(suggestDate))
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	return s
}

func TestSuggest_FrequentDesk(t *testing.T) {
	st := newMemStore(desk(7, "Mesa 7", 2, 0), desk(9, "Mesa 9", 2, 4))
	st.addUser("ana", "", "")
	for _, d := range []string{"2026-01-05", "2026-01-06", "2026-01-07", "2026-01-08", "2026-01-09"} {
		st.seedBooking(d, "Mesa 7", "ana")
	}
	st.seedBooking("2026-01-12", "Mesa 9", "ana")

	s := suggest(t, newTestRecommender(st), "ana")
	if s == nil || s.Desk.Name != "Mesa 7" || s.Tier != TierFrequent {
		t.Fatalf("suggestion = %+v, want Mesa 7 frequent", s)
	}
	if s.Score != WeightPersonal || s.Reason != "Sua mesa mais frequente" {
		t.Fatalf("score %d reason %q", s.Score, s.Reason)
	}
}

func TestSuggest_HistoryOutsideWindowIgnored(t *testing.T) {
	st := newMemStore(desk(1, "Mesa 1", 0, 0), desk(7, "Mesa 7", 2, 0))
	st.seedBooking("2025-11-03", "Mesa 7", "ana")

	s := suggest(t, newTestRecommender(st), "ana")
	if s.Desk.Name != "Mesa 1" || s.Tier != TierGeneric {
		t.Fatalf("suggestion = %+v, want Mesa 1 generic", s)
	}
}

func TestSuggest_FavouriteTieGoesToLowestNumber(t *testing.T) {
	st := newMemStore(desk(4, "Mesa 4", 0, 0), desk(8, "Mesa 8", 5, 5), desk(2, "Mesa 2", 9, 9))
	st.seedBooking("2026-01-05", "Mesa 8", "ana")
	st.seedBooking("2026-01-06", "Mesa 4", "ana")

	s := suggest(t, newTestRecommender(st), "ana")
	if s.Desk.Name != "Mesa 4" || s.Tier != TierFrequent {
		t.Fatalf("suggestion = %+v, want Mesa 4 frequent", s)
	}
}

func TestSuggest_FavouriteTakenFallsBackToNeighbours(t *testing.T) {
	st := newMemStore(
		desk(1, "Mesa 1", 0, 0),
		desk(2, "Mesa 2", 0, 1),
		desk(3, "Mesa 3", 0, 2),
		desk(10, "Mesa 10", 5, 0),
		desk(11, "Mesa 11", 5, 1),
	)
	st.addUser("ana", "n1", "c1")
	st.addUser("bia", "n1", "c2")
	st.addUser("caio", "n2", "c1")
	st.seedBooking("2026-01-05", "Mesa 2", "ana")
	st.seedBooking(suggestDate, "Mesa 2", "zeca") // favourite taken
	st.seedBooking(suggestDate, "Mesa 10", "bia") // nucleo colleague
	st.seedBooking(suggestDate, "Mesa 3", "caio") // coordenacao colleague

	s := suggest(t, newTestRecommender(st), "ana")
	// Mesa 11 is next to bia (+2); Mesa 1 is two columns from caio (+1).
	if s.Desk.Name != "Mesa 11" || s.Tier != TierNucleo || s.Score != 2 {
		t.Fatalf("suggestion = %+v, want Mesa 11 nucleo", s)
	}
	if s.Reason != TierNucleo.Reason() {
		t.Fatalf("reason = %q", s.Reason)
	}
}

func TestSuggest_CoordenacaoAndAccumulation(t *testing.T) {
	st := newMemStore(
		desk(1, "Mesa 1", 0, 0),
		desk(2, "Mesa 2", 0, 4),
		desk(3, "Mesa 3", 1, 0),
		desk(4, "Mesa 4", 1, 4),
		desk(5, "Mesa 5", 2, 1),
	)
	st.addUser("ana", "", "c1")
	st.addUser("bia", "", "c1")
	st.addUser("caio", "", "c1")
	st.seedBooking(suggestDate, "Mesa 1", "bia")
	st.seedBooking(suggestDate, "Mesa 2", "caio")

	// Mesa 3 neighbours only Mesa 1; Mesa 4 neighbours only Mesa 2.  Both
	// score 1, so the lower number wins.
	s := suggest(t, newTestRecommender(st), "ana")
	if s.Desk.Name != "Mesa 3" || s.Tier != TierCoordenacao || s.Score != 1 {
		t.Fatalf("suggestion = %+v, want Mesa 3 coordenacao", s)
	}

	// A third colleague next to Mesa 3 makes it accumulate 2.
	st.addUser("duda", "", "c1")
	st.seedBooking(suggestDate, "Mesa 5", "duda")
	s = suggest(t, newTestRecommender(st), "ana")
	if s.Desk.Name != "Mesa 3" || s.Score != 2 {
		t.Fatalf("suggestion = %+v, want Mesa 3 with 2", s)
	}
}

func TestSuggest_NeighbourhoodIsRectangular(t *testing.T) {
	c := desk(1, "c", 5, 5)
	cases := []struct {
		row, col int
		want     bool
	}{
		{5, 5, true}, {4, 3, true}, {6, 7, true}, {4, 7, true},
		{3, 5, false}, {5, 8, false}, {7, 7, false}, {5, 2, false},
	}
	for _, tc := range cases {
		if got := Near(desk(2, "x", tc.row, tc.col), c); got != tc.want {
			t.Errorf("Near(%d,%d) = %v, want %v", tc.row, tc.col, got, tc.want)
		}
	}
}

func TestSuggest_NoneWhenBookedOrFull(t *testing.T) {
	st := newMemStore(desk(1, "Mesa 1", 0, 0), desk(2, "Mesa 2", 0, 1))
	st.seedBooking(suggestDate, "Mesa 1", "ana")
	r := newTestRecommender(st)

	if s := suggest(t, r, "ana"); s != nil {
		t.Fatalf("booked user got %+v", s)
	}
	s, err := r.Suggest(context.Background(), Actor{UserName: "ana", Admin: true}, model.MustDate(suggestDate))
	if err != nil || s == nil || s.Desk.Name != "Mesa 2" {
		t.Fatalf("admin suggestion = %+v, %v", s, err)
	}

	st.seedBooking(suggestDate, "Mesa 2", "bia")
	if s := suggest(t, r, "caio"); s != nil {
		t.Fatalf("full floor got %+v", s)
	}
}

func TestSuggest_NeverOutsideFreeSet(t *testing.T) {
	st := newMemStore(
		desk(1, "Mesa 1", 0, 0),
		fixedDesk(2, "Mesa 2", 0, 1, "maria"),
		desk(3, "Mesa 3", 0, 2),
		desk(4, "Mesa 4", 0, 3),
	)
	st.addUser("ana", "n1", "c1")
	st.addUser("bia", "n1", "c1")
	for _, d := range []string{"2026-01-05", "2026-01-06", "2026-01-07"} {
		st.seedBooking(d, "Mesa 2", "ana")
	}
	st.seedBooking(suggestDate, "Mesa 1", "bia")
	st.seedBooking(suggestDate, "Mesa 3", "zeca")

	s := suggest(t, newTestRecommender(st), "ana")
	if s == nil || s.Desk.Name != "Mesa 4" {
		t.Fatalf("suggestion = %+v, want the only free desk", s)
	}
}

func TestSuggest_SkipsFailedSignals(t *testing.T) {
	st := newMemStore(desk(1, "Mesa 1", 0, 0), desk(7, "Mesa 7", 4, 4))
	st.addUser("ana", "n1", "")
	st.seedBooking("2026-01-05", "Mesa 7", "ana")
	st.failUsers = errDown

	s := suggest(t, newTestRecommender(st), "ana")
	if s.Desk.Name != "Mesa 7" || s.Tier != TierFrequent {
		t.Fatalf("suggestion = %+v", s)
	}

	st.failHistory = errDown
	st.failProfiles = errDown
	s = suggest(t, newTestRecommender(st), "ana")
	if s.Desk.Name != "Mesa 1" || s.Tier != TierGeneric {
		t.Fatalf("suggestion = %+v, want generic fallback", s)
	}
}

func TestSuggest_CandidateReadFailure(t *testing.T) {
	st := newMemStore(desk(1, "Mesa 1", 0, 0))
	st.failDesks = errDown
	_, err := newTestRecommender(st).Suggest(context.Background(), Actor{UserName: "ana"}, model.MustDate(suggestDate))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want store unavailable", err)
	}
}

func TestSuggest_RecordsTierMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	st := newMemStore(desk(1, "Mesa 1", 0, 0))
	suggest(t, newTestRecommender(st, WithMetrics(m)), "ana")
	if got := testutil.ToFloat64(m.SuggestionsTotal.WithLabelValues("generic")); got != 1 {
		t.Fatalf("generic suggestions = %v", got)
	}
}
