package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/desk-reservation/internal/database"
	"github.com/iliyamo/desk-reservation/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

var (
	day   = model.MustDate("2026-03-02")
	stamp = time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
)

func TestInsertUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepo(openTestDB(t))

	res, err := repo.Insert(ctx, day, "Mesa 1", "ana@corp.com", stamp)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if res.ID == 0 || !res.Active() || res.Kind != model.KindUserBooking {
		t.Fatalf("unexpected record %+v", res)
	}

	if _, err := repo.Insert(ctx, day, "Mesa 1", "bia@corp.com", stamp); !errors.Is(err, ErrDeskTaken) {
		t.Fatalf("same desk: got %v, want ErrDeskTaken", err)
	}
	if _, err := repo.Insert(ctx, day, "Mesa 2", "ana@corp.com", stamp); !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("same user: got %v, want ErrAlreadyBooked", err)
	}
	if _, err := repo.Insert(ctx, day.AddDays(1), "Mesa 1", "ana@corp.com", stamp); err != nil {
		t.Fatalf("next day: %v", err)
	}

	if err := repo.UpdateCancellation(ctx, res.ID, "ana@corp.com", stamp.Add(time.Hour)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := repo.UpdateCancellation(ctx, res.ID, "ana@corp.com", stamp.Add(time.Hour)); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("second cancel: got %v", err)
	}
	if _, err := repo.Insert(ctx, day, "Mesa 1", "bia@corp.com", stamp); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}

	got, err := repo.GetByID(ctx, res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Active() || got.CanceledBy == nil || *got.CanceledBy != "ana@corp.com" {
		t.Fatalf("canceled record = %+v", got)
	}
	if !got.CreatedAt.Equal(stamp) || !got.Date.Equal(day) {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if _, err := repo.GetByID(ctx, 9999); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("missing id: %v", err)
	}
}

func TestFixedDeskRelease(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepo(openTestDB(t))

	rel, err := repo.InsertFixedDeskRelease(ctx, day, "Mesa 9", "maria", "carlos@corp.com", stamp)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if !rel.IsFixedDeskRelease() {
		t.Fatalf("not a release: %+v", rel)
	}
	// A release never blocks a booking of the same desk.
	if _, err := repo.Insert(ctx, day, "Mesa 9", "carlos@corp.com", stamp); err != nil {
		t.Fatalf("book released desk: %v", err)
	}

	recs, err := repo.ListByDate(ctx, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Kind != model.KindFixedDeskRelease || recs[0].CreatedBy != "maria" {
		t.Fatalf("records = %+v", recs)
	}
	if err := repo.UpdateCheckin(ctx, rel.ID, stamp); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("checkin on release: %v", err)
	}
}

func TestActiveQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepo(openTestDB(t))

	mustInsert := func(date model.Date, desk, user string) model.Reservation {
		t.Helper()
		r, err := repo.Insert(ctx, date, desk, user, stamp)
		if err != nil {
			t.Fatalf("insert %s %s: %v", desk, user, err)
		}
		return r
	}
	mustInsert(day.AddDays(-40), "Mesa 1", "ana@corp.com")
	mustInsert(day.AddDays(-3), "Mesa 7", "ana@corp.com")
	old := mustInsert(day.AddDays(-2), "Mesa 7", "ana@corp.com")
	mustInsert(day, "Mesa 2", "bia@corp.com")
	mustInsert(day, "Mesa 3", "caio@corp.com")
	if err := repo.UpdateCancellation(ctx, old.ID, "ana@corp.com", stamp); err != nil {
		t.Fatal(err)
	}

	since, err := repo.ListActiveByUserSince(ctx, "ana@corp.com", day.AddDays(-30))
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 1 || since[0].DeskName != "Mesa 7" {
		t.Fatalf("history = %+v", since)
	}

	on, err := repo.ListActiveByUsersOnDate(ctx, []string{"bia@corp.com", "caio@corp.com", "dora@corp.com"}, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(on) != 2 {
		t.Fatalf("colleagues = %+v", on)
	}
	empty, err := repo.ListActiveByUsersOnDate(ctx, nil, day)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty input = %v, %v", empty, err)
	}
}

func TestUpdateCheckin(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepo(openTestDB(t))
	r, err := repo.Insert(ctx, day, "Mesa 1", "ana@corp.com", stamp)
	if err != nil {
		t.Fatal(err)
	}
	at := stamp.Add(90 * time.Minute)
	if err := repo.UpdateCheckin(ctx, r.ID, at); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.GetByID(ctx, r.ID)
	if got.CheckedInAt == nil || !got.CheckedInAt.Equal(at) {
		t.Fatalf("checked_in_at = %v", got.CheckedInAt)
	}
}

func TestListLog(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepo(openTestDB(t))
	for i, user := range []string{"ana@corp.com", "bia@corp.com", "caio@corp.com"} {
		if _, err := repo.Insert(ctx, day.AddDays(i), fmt.Sprintf("Mesa %d", i+1), user, stamp.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := repo.InsertFixedDeskRelease(ctx, day, "Mesa 9", "maria", "bia@corp.com", stamp); err != nil {
		t.Fatal(err)
	}

	all, err := repo.ListLog(ctx, LogFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 || all[0].CreatedBy != "caio@corp.com" {
		t.Fatalf("log order = %+v", all)
	}

	cases := []struct {
		name string
		f    LogFilter
		want int
	}{
		{"date", LogFilter{Date: &day}, 2},
		{"desk substring", LogFilter{Desk: "mesa 9"}, 1},
		{"created by", LogFilter{CreatedBy: "BIA"}, 1},
		{"canceled by", LogFilter{CanceledBy: "bia"}, 1},
		{"limit", LogFilter{Limit: 2}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.ListLog(ctx, tc.f)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tc.want {
				t.Fatalf("got %d rows, want %d", len(got), tc.want)
			}
		})
	}
}

func TestDeskRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewDeskRepo(openTestDB(t))
	maria := "maria@corp.com"
	for _, d := range []model.Desk{
		{Number: 2, Name: "Mesa 2", GridRow: 1, GridCol: 2, Active: true},
		{Number: 1, Name: "Mesa 1", GridRow: 1, GridCol: 1, RowSpan: 2, ColSpan: 1, FixedAssignee: &maria, Active: true},
		{Number: 3, Name: "Mesa 3", GridRow: 2, GridCol: 1, Active: false},
	} {
		if err := repo.Upsert(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	desks, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(desks) != 2 || desks[0].Name != "Mesa 1" || desks[0].Assignee() != maria || desks[0].RowSpan != 2 {
		t.Fatalf("desks = %+v", desks)
	}
	if desks[1].RowSpan != 1 || desks[1].ColSpan != 1 {
		t.Fatalf("spans not defaulted: %+v", desks[1])
	}

	if err := repo.Upsert(ctx, model.Desk{Number: 2, Name: "Mesa 2", GridRow: 4, GridCol: 4, Active: true}); err != nil {
		t.Fatal(err)
	}
	d, err := repo.GetByNumber(ctx, 2)
	if err != nil || d.GridRow != 4 {
		t.Fatalf("after update = %+v, %v", d, err)
	}
	if _, err := repo.GetByNumber(ctx, 42); !errors.Is(err, ErrDeskNotFound) {
		t.Fatalf("missing desk: %v", err)
	}
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(openTestDB(t))
	n1, c1 := "n1", "c1"
	for _, u := range []model.UserRef{
		{UserName: "ana@corp.com", NucleoID: &n1, CoordenacaoID: &c1, Active: true},
		{UserName: "bia@corp.com", NucleoID: &n1, Active: true},
		{UserName: "caio@corp.com", NucleoID: &n1, Active: false},
		{UserName: "dora@corp.com", CoordenacaoID: &c1, Active: true, Admin: true},
	} {
		if err := repo.Upsert(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	u, err := repo.GetByUserName(ctx, "dora@corp.com")
	if err != nil || !u.Admin {
		t.Fatalf("dora = %+v, %v", u, err)
	}
	if _, err := repo.GetByUserName(ctx, "caio@corp.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("inactive user: %v", err)
	}

	team, err := repo.ListInOrgUnit(ctx, model.OrgUnitNucleo, n1, "ana@corp.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(team) != 1 || team[0].UserName != "bia@corp.com" {
		t.Fatalf("nucleo = %+v", team)
	}
	if _, err := repo.ListInOrgUnit(ctx, model.OrgUnitField("is_admin"), "1", ""); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestClassifyInsertErr(t *testing.T) {
	other := errors.New("connection reset")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"mysql user index", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '2026-03-02-ana' for key 'reservations.uq_reservations_date_user'"}, ErrAlreadyBooked},
		{"mysql desk index", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '2026-03-02-Mesa 1' for key 'reservations.uq_reservations_date_desk'"}, ErrDeskTaken},
		{"other mysql error", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout"}, nil},
		{"not a duplicate", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyInsertErr(tc.in)
			want := tc.want
			if want == nil {
				want = tc.in
			}
			if !errors.Is(got, want) {
				t.Fatalf("got %v, want %v", got, want)
			}
		})
	}
	if classifyInsertErr(nil) != nil {
		t.Fatal("nil error classified")
	}
}

func TestListLogMatchesLiterally(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepo(openTestDB(t))
	if _, err := repo.Insert(ctx, day, "Mesa_1", "joao_silva@corp.com", stamp); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Insert(ctx, day, "Mesa 12", "joaoXsilva@corp.com", stamp); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		f    LogFilter
		want int
	}{
		{"underscore in user", LogFilter{CreatedBy: "JOAO_SILVA"}, 1},
		{"underscore in desk", LogFilter{Desk: "mesa_1"}, 1},
		{"percent is not a wildcard", LogFilter{CreatedBy: "%"}, 0},
		{"backslash", LogFilter{Desk: `mesa\`}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.ListLog(ctx, tc.f)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tc.want {
				t.Fatalf("got %d rows, want %d", len(got), tc.want)
			}
		})
	}
}

func TestUnknownKindIsAScanError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewReservationRepo(db)
	res, err := db.ExecContext(ctx,
		`INSERT INTO reservations (date, desk_name, kind, created_by, created_at) VALUES (?, ?, 'HOLD', ?, ?)`,
		day.String(), "Mesa 1", "ana@corp.com", toMillis(stamp))
	if err != nil {
		t.Fatal(err)
	}
	id, _ := res.LastInsertId()

	if _, err := repo.GetByID(ctx, id); err == nil || errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("GetByID: err = %v, want scan error", err)
	}
	if _, err := repo.ListByDate(ctx, day); err == nil {
		t.Fatal("ListByDate read an unknown kind")
	}
}
