package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder used when
// metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordAuthorizeStart(provider string, success bool) {}

func (n *NoopMetrics) RecordCallback(provider, result string) {}

func (n *NoopMetrics) RecordTokenExchange(provider string, success bool, d time.Duration) {}

func (n *NoopMetrics) RecordLazyExpiration(provider string) {}

func (n *NoopMetrics) SetConnectedProviders(count int) {}

func (n *NoopMetrics) RecordProbe(provider, testType string, ok bool, d time.Duration) {}

func (n *NoopMetrics) RecordDatabaseQueryError(operation string) {}
