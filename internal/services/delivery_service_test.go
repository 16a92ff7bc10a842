package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tbourn/go-relay-bot/internal/domain"
)

type stubLookup struct {
	res   LookupResult
	calls int
}

func (l *stubLookup) Lookup(context.Context, int64) LookupResult {
	l.calls++
	return l.res
}

func found(ref string, id *int64, messageID int64) LookupResult {
	return LookupResult{Status: LookupFound, Post: domain.NewPost(1, domain.Location{Ref: ref, ID: id}, messageID, time.Now())}
}

func newDeliverer(l Lookuper, ft *fakeTransport, ex *fakeExpirer) *Deliverer {
	return &Deliverer{Registry: l, Transport: ft, Expiry: ex, Texts: NewTexts("en", "Bot", "https://t.me/+promo")}
}

var req = domain.Request{ChatID: 42, MessageID: 7, Text: "5"}

func TestDeliver_Success(t *testing.T) {
	id := int64(-100123)
	ft := &fakeTransport{}
	ex := &fakeExpirer{}
	d := newDeliverer(&stubLookup{res: found("@chan", &id, 77)}, ft, ex)

	if out := d.Deliver(context.Background(), req, 5); out != OutcomeDelivered {
		t.Fatalf("outcome %q", out)
	}

	if len(ft.relays) != 1 || ft.relays[0].MessageID != 77 || ft.relays[0].Source.Resolve() != "-100123" {
		t.Fatalf("relay: %+v", ft.relays)
	}
	if len(ft.forwards) != 0 {
		t.Fatalf("requester delivery must not forward with provenance")
	}
	if len(ft.texts) != 2 {
		t.Fatalf("want expiry note and promo, got %+v", ft.texts)
	}
	for _, s := range ft.texts {
		if s.ChatID != 42 || s.ReplyTo != 7 {
			t.Fatalf("notice not a reply to the request: %+v", s)
		}
	}

	want := []scheduled{{ChatID: 42, IDs: []int64{101, 102, 103}, Delay: 20 * time.Second}}
	if diff := cmp.Diff(want, ex.calls); diff != "" {
		t.Fatalf("schedule (-want +got):\n%s", diff)
	}
}

func TestDeliver_NotFoundNeverFetches(t *testing.T) {
	ft := &fakeTransport{}
	ex := &fakeExpirer{}
	d := newDeliverer(&stubLookup{res: LookupResult{Status: LookupNotFound}}, ft, ex)

	if out := d.Deliver(context.Background(), req, 999); out != OutcomeNotFound {
		t.Fatalf("outcome %q", out)
	}
	if ft.fetches != 0 || len(ft.relays) != 0 {
		t.Fatalf("not-found must not fetch or relay")
	}
	if len(ft.texts) != 1 || ft.texts[0].Text != d.Texts.NotFound() {
		t.Fatalf("want one not-found reply, got %+v", ft.texts)
	}
	if len(ex.calls) != 0 {
		t.Fatalf("not-found reply is not scheduled: %+v", ex.calls)
	}
}

func TestDeliver_FetchFailureSchedulesNothing(t *testing.T) {
	for name, ft := range map[string]*fakeTransport{
		"error":   {fetchErr: errors.New("CHANNEL_PRIVATE")},
		"nothing": {fetchNil: true},
	} {
		t.Run(name, func(t *testing.T) {
			ex := &fakeExpirer{}
			d := newDeliverer(&stubLookup{res: found("@chan", nil, 3)}, ft, ex)

			if out := d.Deliver(context.Background(), req, 1); out != OutcomeFailed {
				t.Fatalf("outcome %q", out)
			}
			if len(ft.relays) != 0 || len(ex.calls) != 0 {
				t.Fatalf("nothing should be relayed or scheduled")
			}
			if len(ft.texts) != 1 || ft.texts[0].Text != d.Texts.Failure() {
				t.Fatalf("want one generic failure reply, got %+v", ft.texts)
			}
		})
	}
}

func TestDeliver_TransientLookupFails(t *testing.T) {
	ft := &fakeTransport{}
	d := newDeliverer(&stubLookup{res: LookupResult{Status: LookupTransientError, Err: errors.New("locked")}}, ft, &fakeExpirer{})

	if out := d.Deliver(context.Background(), req, 1); out != OutcomeFailed {
		t.Fatalf("outcome %q", out)
	}
	if ft.fetches != 0 || len(ft.texts) != 1 || ft.texts[0].Text != d.Texts.Failure() {
		t.Fatalf("transient error should only produce the failure reply: %+v", ft.texts)
	}
}

func TestDeliver_EmptyLocationFails(t *testing.T) {
	ft := &fakeTransport{}
	d := newDeliverer(&stubLookup{res: found("", nil, 3)}, ft, &fakeExpirer{})

	if out := d.Deliver(context.Background(), req, 1); out != OutcomeFailed {
		t.Fatalf("outcome %q", out)
	}
	if ft.fetches != 0 {
		t.Fatalf("empty location must not be fetched")
	}
}

func TestDeliver_NoticeFailureStillExpiresRelayedCopy(t *testing.T) {
	ft := &fakeTransport{sendErr: errors.New("flood"), sendErrAt: 2}
	ex := &fakeExpirer{}
	d := newDeliverer(&stubLookup{res: found("@chan", nil, 3)}, ft, ex)

	if out := d.Deliver(context.Background(), req, 1); out != OutcomeFailed {
		t.Fatalf("outcome %q", out)
	}
	// relay (101) and expiry note (102) were produced before the promo failed.
	want := []scheduled{{ChatID: 42, IDs: []int64{101, 102}, Delay: DeliveryTTL}}
	if diff := cmp.Diff(want, ex.calls); diff != "" {
		t.Fatalf("schedule (-want +got):\n%s", diff)
	}
}

func TestDeliver_RepeatRequestsAreIndependent(t *testing.T) {
	ft := &fakeTransport{}
	ex := &fakeExpirer{}
	d := newDeliverer(&stubLookup{res: found("@chan", nil, 3)}, ft, ex)

	d.Deliver(context.Background(), req, 1)
	d.Deliver(context.Background(), req, 1)
	if len(ex.calls) != 2 || len(ft.relays) != 2 {
		t.Fatalf("each request gets its own copy and schedule: %+v", ex.calls)
	}
	if ex.calls[0].IDs[0] == ex.calls[1].IDs[0] {
		t.Fatalf("schedules share ids: %+v", ex.calls)
	}
}

func TestHelp_SchedulesWelcomeAtNineSeconds(t *testing.T) {
	ft := &fakeTransport{}
	ex := &fakeExpirer{}
	d := newDeliverer(&stubLookup{}, ft, ex)

	d.Help(context.Background(), req)

	if len(ft.texts) != 1 || ft.texts[0].Text != d.Texts.Welcome(20) {
		t.Fatalf("welcome: %+v", ft.texts)
	}
	want := []scheduled{{ChatID: 42, IDs: []int64{101}, Delay: 9 * time.Second}}
	if diff := cmp.Diff(want, ex.calls); diff != "" {
		t.Fatalf("schedule (-want +got):\n%s", diff)
	}
}

func TestHelp_SendFailureIsQuiet(t *testing.T) {
	ex := &fakeExpirer{}
	d := newDeliverer(&stubLookup{}, &fakeTransport{sendErr: errors.New("blocked")}, ex)
	d.Help(context.Background(), req)
	if len(ex.calls) != 0 {
		t.Fatalf("nothing to expire: %+v", ex.calls)
	}
}

func TestDeliver_EndToEndWithScheduler(t *testing.T) {
	db := newTestDB(t)
	reg := NewPostRegistry(db)
	ctx := context.Background()
	if err := reg.Put(ctx, domain.NewPost(5, domain.Location{Ref: "@chan"}, 50, time.Now())); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ft := &fakeTransport{}
	sched, fire := manualScheduler(ft)
	d := &Deliverer{Registry: reg, Transport: ft, Expiry: sched, Texts: NewTexts("fa", "Bot", "p")}

	if out := d.Deliver(ctx, req, 5); out != OutcomeDelivered {
		t.Fatalf("outcome %q", out)
	}
	fire()
	waitFor(t, func() bool { return len(ft.deleteCalls()) == 1 })
	if got := ft.deleteCalls()[0]; len(got) != 3 {
		t.Fatalf("want 3 ids deleted, got %v", got)
	}
}
