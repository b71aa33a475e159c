package proctoring

import "context"

// Report is the reviewer-facing violation heuristic for one attempt. It is
// an approximation, not proof of misconduct: a critical client error or a
// completed attempt with zero captured snapshots both raise the flag, and a
// human still has to look.
type Report struct {
	AttemptID    string   `json:"attempt_id"`
	Suspected    bool     `json:"suspected"`
	Reasons      []string `json:"reasons,omitempty"`
	EventCount   int      `json:"event_count"`
	ImageCount   int      `json:"image_count"`
	HiddenEvents int      `json:"hidden_events"`
}

// BuildReport derives the heuristic from the attempt's stored telemetry.
// attemptCompleted comes from the attempt record; the sink itself never
// tracks completion.
func (s *Sink) BuildReport(ctx context.Context, attemptID string, attemptCompleted bool) (Report, error) {
	logs, err := s.store.ListLogs(ctx, attemptID)
	if err != nil {
		return Report{}, err
	}
	images, err := s.store.CountImages(ctx, attemptID)
	if err != nil {
		return Report{}, err
	}

	r := Report{AttemptID: attemptID, EventCount: len(logs), ImageCount: images}
	for _, l := range logs {
		switch l.EventType {
		case EventCriticalError, EventWebcamDenied:
			r.Suspected = true
			r.Reasons = append(r.Reasons, "critical client event: "+l.EventType)
		case EventTabHidden, EventPageLeave:
			r.HiddenEvents++
		}
	}
	if attemptCompleted && images == 0 {
		r.Suspected = true
		r.Reasons = append(r.Reasons, "completed attempt has no captured snapshots")
	}
	return r, nil
}
