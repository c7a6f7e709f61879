package execution

import "search-chat/internal/agent"

// State 是回合状态机的位置。
type State int

const (
	StateAwaitingModel State = iota
	StateAwaitingTools
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateAwaitingTools:
		return "awaiting_tools"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Route decides the next state from an assistant reply: no tool calls ends the turn.
func Route(reply agent.Message) State {
	if len(reply.ToolCalls) == 0 {
		return StateDone
	}
	return StateAwaitingTools
}
