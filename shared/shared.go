package shared

import (
	"time"

	"github.com/uber/tchannel-go"

	"golang.org/x/net/context"
)

// SubChannel represents the TChannel subchannel the failure detector
// transport registers its endpoint on.
type SubChannel interface {
	tchannel.Registrar
}

var retryOptions = &tchannel.RetryOptions{
	RetryOn: tchannel.RetryNever,
}

// NewTChannelContext returns a TChannel call context with tracing disabled
// and retries turned off. Probe traffic is time-driven; a retried call would
// only arrive after its timer already decided the round.
func NewTChannelContext(timeout time.Duration) (tchannel.ContextWithHeaders, context.CancelFunc) {
	return tchannel.NewContextBuilder(timeout).
		DisableTracing().
		SetRetryOptions(retryOptions).
		Build()
}
