package models

import "time"

type LifecycleKind string

const (
	LifecycleSpawned LifecycleKind = "spawned"
	LifecycleExited  LifecycleKind = "exited"
	LifecycleKilled  LifecycleKind = "killed"
	LifecycleFailed  LifecycleKind = "spawn_failed"
)

// MLifecycleEvent records one worker process transition.
type MLifecycleEvent struct {
	Kind      LifecycleKind `json:"kind"`
	Pid       int           `json:"pid"`
	ExitCode  int           `json:"exitCode"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"createdAt"`
}
