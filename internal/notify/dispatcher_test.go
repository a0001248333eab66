package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"portal/internal/model"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

func TestDispatcher_Recipients(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, "org@example.org", "mentor@example.org", "https://portal.example.org/")
	p := model.PurchaseRequest{PurchaseID: 7, SubmittedBy: "kid@example.org"}

	d.PurchaseCreated(p)
	d.PurchaseEdited(p)
	d.RoutedToMentor(p)
	d.FinalApproved(p)
	d.Wait()

	got := map[string]Message{}
	for _, m := range mailer.messages() {
		got[m.Subject] = m
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(got))
	}
	if m := got["Purchase Request has been created!"]; m.To[0] != "org@example.org" ||
		!strings.HasSuffix(m.Body, "https://portal.example.org/member/purchase/view/7") {
		t.Fatalf("bad create mail %+v", m)
	}
	if m := got["Purchase Request has been edited!"]; m.To[0] != "org@example.org" {
		t.Fatalf("bad edit mail %+v", m)
	}
	if m := got["Purchase Request #7 needs mentor approval"]; m.To[0] != "mentor@example.org" ||
		!strings.HasSuffix(m.Body, "/member/purchase/mentor") {
		t.Fatalf("bad mentor mail %+v", m)
	}
	if m := got["Purchase Request #7 has been approved!"]; m.To[0] != "kid@example.org" {
		t.Fatalf("bad final mail %+v", m)
	}
}

func TestDispatcher_FailureIsSwallowed(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	d := NewDispatcher(mailer, "org@example.org", "", "http://localhost")
	d.PurchaseCreated(model.PurchaseRequest{PurchaseID: 1})
	d.Wait()
	if len(mailer.messages()) != 1 {
		t.Fatalf("expected one attempt")
	}
}

func TestDispatcher_SkipsMissingRecipient(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, "org@example.org", "", "http://localhost")
	d.RoutedToMentor(model.PurchaseRequest{PurchaseID: 1})
	d.Wait()
	if len(mailer.messages()) != 0 {
		t.Fatalf("expected no send without mentor address")
	}
}
