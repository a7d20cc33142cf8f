package history

import (
	"context"
	"encoding/json"
	"fmt"
)

func (a *Aggregator) load(ctx context.Context) {
	if a.storage == nil {
		return
	}
	data, err := a.storage.Load(ctx)
	if err != nil {
		a.report(fmt.Errorf("load history: %w", err))
		return
	}
	if len(data) == 0 {
		return
	}
	state, err := decodeState(data)
	if err != nil {
		// Corrupt data falls back to the empty state.
		a.report(fmt.Errorf("decode history: %w", err))
		return
	}
	a.state = a.normalize(state)
}

func (a *Aggregator) save(ctx context.Context) {
	if a.storage == nil {
		return
	}
	data, err := json.Marshal(a.state)
	if err != nil {
		a.report(fmt.Errorf("encode history: %w", err))
		return
	}
	if err := a.storage.Save(ctx, data); err != nil {
		a.report(fmt.Errorf("save history: %w", err))
	}
}

func (a *Aggregator) report(err error) {
	if a.onError != nil {
		a.onError(err)
	}
}

func decodeState(data []byte) (State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, err
	}
	return state, nil
}

func (a *Aggregator) normalize(s State) State {
	if s.PersonalBests == nil {
		s.PersonalBests = map[string]PersonalBest{}
	}
	if len(s.Results) > a.limits.MaxResults {
		s.Results = s.Results[:a.limits.MaxResults]
	}
	if len(s.Daily) > a.limits.MaxDays {
		s.Daily = s.Daily[:a.limits.MaxDays]
	}
	for i := range s.Results {
		if s.Results[i].Category == "" {
			s.Results[i].Category = CategorizeLabel(s.Results[i].Mode)
		}
	}
	for label, pb := range s.PersonalBests {
		if pb.Category == "" {
			pb.Category = CategorizeLabel(label)
			s.PersonalBests[label] = pb
		}
	}
	if s.TotalTests < 0 {
		s.TotalTests = 0
	}
	if s.TotalSeconds < 0 {
		s.TotalSeconds = 0
	}
	return s
}
