package main

import (
	"sync"

	"github.com/jadolg/AudioStash"
)

// JobStatus represents the current status of a pipeline job
type JobStatus string

const (
	StatusProcessing JobStatus = "Processing"
	StatusReady      JobStatus = "Ready"
	StatusError      JobStatus = "Error"
)

// JobState holds the complete state of a pipeline job
type JobState struct {
	ID     string             `json:"id"`
	Status JobStatus          `json:"status"`
	Error  string             `json:"error,omitempty"`
	Result *audiostash.Result `json:"result,omitempty"`
}

// StateManager manages the state of all pipeline jobs
type StateManager struct {
	sync.RWMutex
	states map[string]*JobState
}

// NewStateManager creates a new StateManager instance
func NewStateManager() *StateManager {
	return &StateManager{
		states: make(map[string]*JobState),
	}
}

// GetState returns a copy of the current state of a job, or nil if not found
func (sm *StateManager) GetState(jobID string) *JobState {
	sm.RLock()
	defer sm.RUnlock()
	if state, exists := sm.states[jobID]; exists {
		stateCopy := *state
		return &stateCopy
	}
	return nil
}

// SetStatus sets the status of a job
func (sm *StateManager) SetStatus(jobID string, status JobStatus) {
	sm.Lock()
	defer sm.Unlock()
	if state, exists := sm.states[jobID]; exists {
		state.Status = status
	} else {
		sm.states[jobID] = &JobState{
			ID:     jobID,
			Status: status,
		}
	}
}

// SetReady marks a job as finished with its result
func (sm *StateManager) SetReady(jobID string, result *audiostash.Result) {
	sm.Lock()
	defer sm.Unlock()
	if state, exists := sm.states[jobID]; exists {
		state.Status = StatusReady
		state.Result = result
		state.Error = ""
	} else {
		sm.states[jobID] = &JobState{
			ID:     jobID,
			Status: StatusReady,
			Result: result,
		}
	}
}

// SetError marks a job as failed with an error message
func (sm *StateManager) SetError(jobID, errMsg string) {
	sm.Lock()
	defer sm.Unlock()
	if state, exists := sm.states[jobID]; exists {
		state.Status = StatusError
		state.Error = errMsg
	} else {
		sm.states[jobID] = &JobState{
			ID:     jobID,
			Status: StatusError,
			Error:  errMsg,
		}
	}
}

// IsProcessing returns true if the job is still running
func (sm *StateManager) IsProcessing(jobID string) bool {
	return sm.hasStatus(jobID, StatusProcessing)
}

// IsReady returns true if the job finished successfully
func (sm *StateManager) IsReady(jobID string) bool {
	return sm.hasStatus(jobID, StatusReady)
}

func (sm *StateManager) hasStatus(jobID string, status JobStatus) bool {
	sm.RLock()
	defer sm.RUnlock()
	if state, exists := sm.states[jobID]; exists {
		return state.Status == status
	}
	return false
}

// Delete removes a job from the state manager
func (sm *StateManager) Delete(jobID string) {
	sm.Lock()
	defer sm.Unlock()
	delete(sm.states, jobID)
}
