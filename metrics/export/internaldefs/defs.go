package internaldefs

import (
	goSpace "github.com/MrEthical07/goSpace"
)

// CounterDef names one exported engine counter.
type CounterDef struct {
	ID   goSpace.MetricID
	Name string
	Help string
}

// HistogramDef names one exported engine histogram.
type HistogramDef struct {
	ID   goSpace.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: goSpace.MetricLoginSuccess, Name: "gospace_login_success_total", Help: "Login calls that ended authenticated."},
	{ID: goSpace.MetricLoginFailure, Name: "gospace_login_failure_total", Help: "Login calls that failed in the wallet or store step."},
	{ID: goSpace.MetricLoginNoop, Name: "gospace_login_noop_total", Help: "Login calls on an already authenticated session."},
	{ID: goSpace.MetricLoginInProgress, Name: "gospace_login_in_progress_total", Help: "Login calls rejected because another login was in flight."},
	{ID: goSpace.MetricWalletConnected, Name: "gospace_wallet_connected_total", Help: "Transitions into WalletConnected."},
	{ID: goSpace.MetricStoreAuthenticated, Name: "gospace_store_authenticated_total", Help: "Transitions into Authenticated."},
	{ID: goSpace.MetricLogout, Name: "gospace_logout_total", Help: "Logout calls."},
	{ID: goSpace.MetricSpaceOpened, Name: "gospace_space_opened_total", Help: "Namespaces opened."},
	{ID: goSpace.MetricSpaceOpenFailure, Name: "gospace_space_open_failure_total", Help: "Namespace opens rejected by the store."},
	{ID: goSpace.MetricSpaceClosed, Name: "gospace_space_closed_total", Help: "Namespaces closed."},
	{ID: goSpace.MetricGuardNotLoaded, Name: "gospace_guard_not_loaded_total", Help: "Calls rejected before the host finished loading."},
	{ID: goSpace.MetricGuardNotAuthenticated, Name: "gospace_guard_not_authenticated_total", Help: "Calls rejected without an authenticated session."},
	{ID: goSpace.MetricGuardNamespaceNotOpen, Name: "gospace_guard_namespace_not_open_total", Help: "Calls rejected because the caller namespace was not open."},
	{ID: goSpace.MetricValueRead, Name: "gospace_value_read_total", Help: "Private and public value reads."},
	{ID: goSpace.MetricValueWrite, Name: "gospace_value_write_total", Help: "Private and public value writes."},
	{ID: goSpace.MetricWriteRateLimited, Name: "gospace_write_rate_limited_total", Help: "Value writes rejected by the write limiter."},
	{ID: goSpace.MetricPublicSpaceRead, Name: "gospace_public_space_read_total", Help: "Public space data reads."},
	{ID: goSpace.MetricWalletTimeout, Name: "gospace_wallet_timeout_total", Help: "Wallet calls that timed out."},
	{ID: goSpace.MetricStoreTimeout, Name: "gospace_store_timeout_total", Help: "Store calls that timed out."},
}

// HistogramDefs lists every engine histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: goSpace.MetricStoreLatency, Name: "gospace_store_latency_seconds", Help: "Store call latency."},
}

// DroppedName is the counter for notifications dropped by the dispatcher.
const (
	DroppedName = "gospace_notifications_dropped_total"
	DroppedHelp = "Notifications dropped due to dispatcher backpressure."
)

// HistogramUpperBounds are the bucket upper bounds in seconds, without +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
