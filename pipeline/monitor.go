package pipeline

// TurnMonitor provides hooks to observe a turn as it moves through the
// pipeline. Implement this interface to track stage transitions and
// intermediate state during a turn.
type TurnMonitor interface {
	Start(query string)
	StageStarted(stage Stage)
	StageCompleted(stage Stage, state *State)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of TurnMonitor
type noopMonitor struct{}

var _ TurnMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                   {}
func (n *noopMonitor) StageStarted(_ Stage)             {}
func (n *noopMonitor) StageCompleted(_ Stage, _ *State) {}
func (n *noopMonitor) Finish(_ *Result)                 {}
