package gate

import (
	"net/url"

	"github.com/alfredjeanlab/history/internal/model"
)

// Query parameters set by the auth provider and checkout redirects.
const (
	ParamMessage  = "message"
	ParamError    = "error"
	ParamCheckout = "checkout"
)

type callbackNotice struct {
	param, value string
	severity     model.Severity
	message      string
}

var callbackNotices = []callbackNotice{
	{ParamMessage, "email_updated", model.SeveritySuccess, "Email address successfully updated!"},
	{ParamMessage, "email_link_expired", model.SeverityError, "Email confirmation link has expired. Please request a new email change."},
	{ParamError, "auth_failed", model.SeverityError, "Authentication failed. Please try again."},
	{ParamCheckout, "success", model.SeveritySuccess, "Payment setup successful!"},
}

// HandleAuthCallback turns auth and checkout redirect parameters in the
// current URL into a notification and removes them from the URL, keeping the
// research token. It reports whether a known parameter was found.
func (o *Orchestrator) HandleAuthCallback() bool {
	u, err := url.Parse(o.links.URL())
	if err != nil {
		return false
	}
	q := u.Query()
	if !q.Has(ParamMessage) && !q.Has(ParamError) && !q.Has(ParamCheckout) {
		return false
	}

	// At most one message or error notice applies; a checkout notice is
	// matched on its own and replaces it.
	var found, authMatched bool
	for _, n := range callbackNotices {
		if q.Get(n.param) != n.value {
			continue
		}
		if n.param != ParamCheckout {
			if authMatched {
				continue
			}
			authMatched = true
		}
		o.notifier.Notify(n.severity, n.message)
		found = true
	}
	if _, err := o.links.Strip(ParamMessage, ParamError, ParamCheckout); err != nil {
		o.logger.Warn("stripping callback parameters failed", "error", err)
	}
	return found
}
