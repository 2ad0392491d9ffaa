package requests

import (
	"bytes"
	"context"
	"testing"
	"time"

	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"

	"github.com/mentorhub/mentorhub-backend/pkg/config"
	"github.com/mentorhub/mentorhub-backend/pkg/enums"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/rs/zerolog"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	var buf bytes.Buffer
	logg := logger.New(logger.Options{
		ServiceName: "requests-test",
		Level:       zerolog.DebugLevel,
		Output:      &buf,
	})
	local, err := localstore.Open(context.Background(), config.LocalStoreConfig{Path: "file::memory:"}, nil)
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = local.Close() })

	store, err := NewStore(local, nil, nil, nil, logg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func createInput(requester, mentor string) CreateInput {
	return CreateInput{
		RequesterEmail: requester,
		RequesterName:  "Requester",
		MentorEmail:    mentor,
		MentorName:     "Mentor",
		Note:           "please mentor me",
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error, got %T: %v", err, err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s", code, typed.Code())
	}
}

func TestCreateRejectsDuplicatePending(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, createInput("a@x.com", "b@x.com")); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(ctx, createInput("a@x.com", "b@x.com"))
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateAllowedAfterResolution(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	outcome, err := svc.Create(ctx, createInput("a@x.com", "b@x.com"))
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	if _, err := svc.Respond(ctx, "b@x.com", RespondInput{
		RequestID: outcome.Local.ID,
		Accept:    true,
	}); err != nil {
		t.Fatalf("respond: %v", err)
	}

	// A resolved request no longer blocks resubmission.
	if _, err := svc.Create(ctx, createInput("a@x.com", "b@x.com")); err != nil {
		t.Fatalf("create after resolve: %v", err)
	}
}

func TestCreateRejectsSelfMentorship(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), createInput("a@x.com", "a@x.com"))
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestRespondTrimsNoteAndStampsRespondedAt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	outcome, err := svc.Create(ctx, createInput("a@x.com", "b@x.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	before := time.Now().UTC()
	responded, err := svc.Respond(ctx, "b@x.com", RespondInput{
		RequestID:    outcome.Local.ID,
		Accept:       true,
		ResponseNote: "  Welcome!  ",
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}

	got := responded.Local
	if got.Status != enums.RequestStatusAccepted {
		t.Fatalf("expected accepted, got %s", got.Status)
	}
	if got.ResponseNote == nil || *got.ResponseNote != "Welcome!" {
		t.Fatalf("expected trimmed note, got %v", got.ResponseNote)
	}
	if got.RespondedAt == nil || got.RespondedAt.Before(before) {
		t.Fatalf("responded_at not stamped: %v", got.RespondedAt)
	}
}

func TestRespondStoresNilForEmptyNote(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	outcome, err := svc.Create(ctx, createInput("a@x.com", "b@x.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	responded, err := svc.Respond(ctx, "b@x.com", RespondInput{
		RequestID:    outcome.Local.ID,
		Accept:       false,
		ResponseNote: "   ",
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if responded.Local.ResponseNote != nil {
		t.Fatalf("expected absent note, got %q", *responded.Local.ResponseNote)
	}
	if responded.Local.Status != enums.RequestStatusDeclined {
		t.Fatalf("expected declined, got %s", responded.Local.Status)
	}
}

func TestRespondRejectsNonMentor(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	outcome, err := svc.Create(ctx, createInput("a@x.com", "b@x.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Respond(ctx, "a@x.com", RespondInput{RequestID: outcome.Local.ID, Accept: true})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestRespondRejectsResolvedRequest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	outcome, err := svc.Create(ctx, createInput("a@x.com", "b@x.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Respond(ctx, "b@x.com", RespondInput{RequestID: outcome.Local.ID, Accept: true}); err != nil {
		t.Fatalf("first respond: %v", err)
	}

	_, err = svc.Respond(ctx, "b@x.com", RespondInput{RequestID: outcome.Local.ID, Accept: false})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCategorize(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Outgoing: me -> mentor, pending.
	if _, err := svc.Create(ctx, createInput("me@x.com", "mentor@x.com")); err != nil {
		t.Fatalf("create outgoing: %v", err)
	}
	// Incoming: mentee -> me, pending.
	if _, err := svc.Create(ctx, createInput("mentee@x.com", "me@x.com")); err != nil {
		t.Fatalf("create incoming: %v", err)
	}
	// Processed: other -> me, declined.
	outcome, err := svc.Create(ctx, createInput("other@x.com", "me@x.com"))
	if err != nil {
		t.Fatalf("create processed: %v", err)
	}
	if _, err := svc.Respond(ctx, "me@x.com", RespondInput{RequestID: outcome.Local.ID, Accept: false}); err != nil {
		t.Fatalf("respond: %v", err)
	}

	got, err := svc.Categorize(ctx, "me@x.com")
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if len(got.Outgoing) != 1 || got.Outgoing[0].MentorEmail != "mentor@x.com" {
		t.Fatalf("unexpected outgoing %+v", got.Outgoing)
	}
	if len(got.Incoming) != 1 || got.Incoming[0].RequesterEmail != "mentee@x.com" {
		t.Fatalf("unexpected incoming %+v", got.Incoming)
	}
	if len(got.Processed) != 1 || got.Processed[0].RequesterEmail != "other@x.com" {
		t.Fatalf("unexpected processed %+v", got.Processed)
	}
}

func TestListAccepted(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	outcome, err := svc.Create(ctx, createInput("me@x.com", "mentor@x.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Respond(ctx, "mentor@x.com", RespondInput{RequestID: outcome.Local.ID, Accept: true}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if _, err := svc.Create(ctx, createInput("me@x.com", "pending@x.com")); err != nil {
		t.Fatalf("create pending: %v", err)
	}

	accepted, err := svc.ListAccepted(ctx, "me@x.com")
	if err != nil {
		t.Fatalf("list accepted: %v", err)
	}
	if len(accepted) != 1 || accepted[0].MentorEmail != "mentor@x.com" {
		t.Fatalf("unexpected accepted set %+v", accepted)
	}
}
