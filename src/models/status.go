package models

// -----------------------------------------------------------------------------
// Status Snapshot (held by the supervisor)
// -----------------------------------------------------------------------------

type MStatusSnapshot struct {
	SourceConnected   bool   `json:"sourceConnected"`
	ServerRunning     bool   `json:"serverRunning"`
	ClientCount       int    `json:"clientCount"`
	SubscriptionCount int    `json:"subscriptionCount"`
	WsURL             string `json:"wsUrl,omitempty"`
	Port              int    `json:"port"`
	LocalIP           string `json:"localIP,omitempty"`
}

// -----------------------------------------------------------------------------
// Status Update - partial snapshot, only set fields are merged
// -----------------------------------------------------------------------------

type MStatusUpdate struct {
	SourceConnected   *bool   `json:"sourceConnected,omitempty"`
	ServerRunning     *bool   `json:"serverRunning,omitempty"`
	ClientCount       *int    `json:"clientCount,omitempty"`
	SubscriptionCount *int    `json:"subscriptionCount,omitempty"`
	WsURL             *string `json:"wsUrl,omitempty"`
	Port              *int    `json:"port,omitempty"`
	LocalIP           *string `json:"localIP,omitempty"`
}

// Merge overwrites the snapshot fields present in u.
func (s *MStatusSnapshot) Merge(u MStatusUpdate) {
	if u.SourceConnected != nil {
		s.SourceConnected = *u.SourceConnected
	}
	if u.ServerRunning != nil {
		s.ServerRunning = *u.ServerRunning
	}
	if u.ClientCount != nil {
		s.ClientCount = *u.ClientCount
	}
	if u.SubscriptionCount != nil {
		s.SubscriptionCount = *u.SubscriptionCount
	}
	if u.WsURL != nil {
		s.WsURL = *u.WsURL
	}
	if u.Port != nil {
		s.Port = *u.Port
	}
	if u.LocalIP != nil {
		s.LocalIP = *u.LocalIP
	}
}

// IsEmpty reports whether the update carries no fields.
func (u MStatusUpdate) IsEmpty() bool {
	return u == MStatusUpdate{}
}

// Builders for single-field updates.

func WithSourceConnected(v bool) MStatusUpdate  { return MStatusUpdate{SourceConnected: &v} }
func WithServerRunning(v bool) MStatusUpdate    { return MStatusUpdate{ServerRunning: &v} }
func WithClientCount(v int) MStatusUpdate       { return MStatusUpdate{ClientCount: &v} }
func WithSubscriptionCount(v int) MStatusUpdate { return MStatusUpdate{SubscriptionCount: &v} }

// DisconnectedUpdate is applied when the worker process goes away.
func DisconnectedUpdate() MStatusUpdate {
	f, zero := false, 0
	return MStatusUpdate{SourceConnected: &f, ServerRunning: &f, ClientCount: &zero}
}
