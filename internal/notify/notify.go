// Package notify fans messages out to admins and users. Delivery is
// best-effort: failures are logged per recipient and never returned.
package notify

import (
	"context"

	"honeydesk/internal/domain"
	applog "honeydesk/internal/log"
	"honeydesk/internal/metrics"
	"honeydesk/internal/transport"
)

// Directory lists registered admins.
type Directory interface {
	AdminExternalIDs(ctx context.Context) ([]string, error)
}

type Dispatcher struct {
	sender  transport.Sender
	admins  Directory
	static  []string
	metrics *metrics.Metrics
}

// New builds a dispatcher. bootstrap holds the configured admin external ids,
// which are notified in addition to registered admins.
func New(sender transport.Sender, admins Directory, bootstrap []string, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{sender: sender, admins: admins, static: bootstrap, metrics: m}
}

// Recipients returns configured and registered admin ids, deduplicated.
func (d *Dispatcher) Recipients(ctx context.Context) []string {
	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range d.static {
		add(id)
	}
	if d.admins != nil {
		ids, err := d.admins.AdminExternalIDs(ctx)
		if err != nil {
			applog.Error(nil, "notify.admins.lookup", err, nil)
		}
		for _, id := range ids {
			add(id)
		}
	}
	return out
}

// Admins sends text (with optional buttons) to every admin and returns how
// many deliveries succeeded.
func (d *Dispatcher) Admins(ctx context.Context, text string, buttons ...transport.Button) int {
	ok := 0
	for _, id := range d.Recipients(ctx) {
		if d.User(ctx, id, text, buttons...) {
			ok++
		}
	}
	return ok
}

// AdminsFile forwards an uploaded file to every admin.
func (d *Dispatcher) AdminsFile(ctx context.Context, fileRef, caption string) int {
	ok := 0
	for _, id := range d.Recipients(ctx) {
		if err := d.sender.SendFile(ctx, id, fileRef, caption); err != nil {
			d.failed(id, err)
			continue
		}
		ok++
	}
	return ok
}

// User sends to a single recipient.
func (d *Dispatcher) User(ctx context.Context, userID, text string, buttons ...transport.Button) bool {
	if err := transport.Send(ctx, d.sender, userID, text, buttons); err != nil {
		d.failed(userID, err)
		return false
	}
	return true
}

func (d *Dispatcher) failed(to string, err error) {
	d.metrics.NotifyFailed()
	applog.Error(nil, "notify.fail", domain.Delivery(err, to), map[string]any{"to": to})
}
