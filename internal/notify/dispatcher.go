package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"portal/internal/model"
)

const sendTimeout = 30 * time.Second

// Dispatcher turns purchase transitions into e-mails. Sends run in the
// background after the transition committed; failures are logged and dropped.
type Dispatcher struct {
	mailer        Mailer
	orgAddress    string
	mentorAddress string
	baseURL       string
	wg            sync.WaitGroup
}

func NewDispatcher(mailer Mailer, orgAddress, mentorAddress, baseURL string) *Dispatcher {
	return &Dispatcher{
		mailer:        mailer,
		orgAddress:    orgAddress,
		mentorAddress: mentorAddress,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

func (d *Dispatcher) viewURL(p model.PurchaseRequest) string {
	return fmt.Sprintf("%s/member/purchase/view/%d", d.baseURL, p.PurchaseID)
}

func (d *Dispatcher) PurchaseCreated(p model.PurchaseRequest) {
	d.dispatch(Message{
		To:      []string{d.orgAddress},
		Subject: "Purchase Request has been created!",
		Body:    "Purchase Request can be found here: " + d.viewURL(p),
	})
}

func (d *Dispatcher) PurchaseEdited(p model.PurchaseRequest) {
	d.dispatch(Message{
		To:      []string{d.orgAddress},
		Subject: "Purchase Request has been edited!",
		Body:    "Purchase Request can be found here: " + d.viewURL(p),
	})
}

// RoutedToMentor tells the mentor an admin-approved request awaits them.
func (d *Dispatcher) RoutedToMentor(p model.PurchaseRequest) {
	d.dispatch(Message{
		To:      []string{d.mentorAddress},
		Subject: fmt.Sprintf("Purchase Request #%d needs mentor approval", p.PurchaseID),
		Body:    "Requests waiting for you can be found here: " + d.baseURL + "/member/purchase/mentor",
	})
}

// FinalApproved tells the submitter their request cleared both stages.
func (d *Dispatcher) FinalApproved(p model.PurchaseRequest) {
	d.dispatch(Message{
		To:      []string{p.SubmittedBy},
		Subject: fmt.Sprintf("Purchase Request #%d has been approved!", p.PurchaseID),
		Body:    "Your approved Purchase Request can be found here: " + d.viewURL(p),
	})
}

// Wait blocks until every in-flight send finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(msg Message) {
	if len(msg.To) == 0 || strings.TrimSpace(msg.To[0]) == "" {
		log.Printf("mail skipped, no recipient configured: %q", msg.Subject)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := d.mailer.Send(ctx, msg); err != nil {
			log.Printf("failed to send mail %q to %s: %v", msg.Subject, strings.Join(msg.To, ","), err)
			return
		}
		log.Printf("Email sent: %q", msg.Subject)
	}()
}
