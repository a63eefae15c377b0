// Package presence tracks who is connected and who is typing, per tenant.
//
// State is process-local and owned by a Tracker instance. A profile whose
// last connection drops is kept as a pending disconnect for a grace window,
// so a quick reconnect produces neither a leave nor a second join.
package presence
