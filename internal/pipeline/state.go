package pipeline

import (
	"sync"
	"time"

	"campaignpulse/internal/channel"
	"campaignpulse/internal/cohort"
	"campaignpulse/internal/dashboard"
	"campaignpulse/internal/dataprocessing"
	"campaignpulse/internal/segment"
	"campaignpulse/pkg/contracts/domain"
)

// State is shared by the steps of one run. Records are written once by the
// clean step and only read afterwards; each engine writes its own result.
type State struct {
	mu sync.RWMutex

	RunID      string
	Source     string
	Parameters domain.RunParameters
	Status     domain.RunStatus
	StartTime  time.Time
	EndTime    time.Time
	Error      error

	steps     map[string]*StepState
	stepOrder []string

	Load      *dataprocessing.LoadResult
	Records   []domain.CampaignRecord
	Cleaning  domain.CleaningSummary
	Dataset   domain.DatasetSummary
	Cohort    *cohort.Result
	Segment   *segment.Result
	Channel   *channel.Result
	Dashboard *dashboard.Dataset

	outputs []domain.OutputFile
}

// NewState creates the state of a pending run
func NewState(runID, source string, params domain.RunParameters) *State {
	return &State{
		RunID:      runID,
		Source:     source,
		Parameters: params,
		Status:     domain.RunStatusPending,
		steps:      make(map[string]*StepState),
	}
}

// Step returns the state of a registered step
func (s *State) Step(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps[id]
}

func (s *State) addStep(step Step) *StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := NewStepState(step.ID(), step.Name())
	s.steps[step.ID()] = st
	s.stepOrder = append(s.stepOrder, step.ID())
	return st
}

// Update runs fn while holding the state's write lock
func (s *State) Update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// View runs fn while holding the state's read lock
func (s *State) View(fn func(*State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s)
}

// AddOutputs records files written during the run
func (s *State) AddOutputs(files ...domain.OutputFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs = append(s.outputs, files...)
}

// Outputs returns the files written so far
func (s *State) Outputs() []domain.OutputFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.OutputFile, len(s.outputs))
	copy(out, s.outputs)
	return out
}

// DataSummary combines the dataset statistics with the cleaning report
func (s *State) DataSummary() domain.DataSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.DataSummary{Dataset: s.Dataset, Cleaning: s.Cleaning}
}

// Manifest describes the run for the run manifest file
func (s *State) Manifest() domain.AnalysisRun {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := domain.AnalysisRun{
		ID:          s.RunID,
		Source:      s.Source,
		Status:      s.Status,
		StartedAt:   s.StartTime,
		CompletedAt: s.EndTime,
		Parameters:  s.Parameters,
		Outputs:     append([]domain.OutputFile(nil), s.outputs...),
	}
	if s.Error != nil {
		run.Error = s.Error.Error()
	}
	for _, id := range s.stepOrder {
		st := s.steps[id]
		timing := domain.StepTiming{
			ID:       st.ID,
			Name:     st.Name,
			Status:   string(st.GetStatus()),
			Duration: st.Duration(),
		}
		if err := st.Err(); err != nil {
			timing.Error = err.Error()
		}
		run.Steps = append(run.Steps, timing)
	}
	return run
}
