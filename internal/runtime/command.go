package runtime

import (
	"fmt"

	"github.com/aretw0/survey/pkg/domain"
)

// Apply runs cmd against state. On error the returned state is the input state and
// the result carries an EventRejected for validation failures.
// Answer and text commands without a node id target the current node.
func (e *Engine) Apply(state *domain.State, cmd domain.Command) (*domain.State, domain.Result, error) {
	if cmd.NodeID == "" && (cmd.Kind == domain.CommandAnswer || cmd.Kind == domain.CommandText) {
		cmd.NodeID = state.CurrentNodeID
	}

	switch cmd.Kind {
	case domain.CommandAnswer:
		next, removed, err := e.UpdateChoice(state, cmd.NodeID, cmd.Selections, !cmd.Append)
		if err != nil {
			return state, e.rejected(state, cmd.NodeID), err
		}
		res := domain.Result{NodeID: next.CurrentNodeID, OK: true}
		if len(removed) > 0 {
			res.Events = append(res.Events, domain.Event{
				Type:    domain.EventInvalidated,
				NodeID:  cmd.NodeID,
				Nodes:   removed,
				Pending: len(next.Pending),
			})
		}
		res.Events = append(res.Events, domain.Event{Type: domain.EventAnswered, NodeID: cmd.NodeID, Pending: len(next.Pending)})
		return next, res, nil

	case domain.CommandText:
		next := e.UpdateText(state, cmd.NodeID, cmd.Text)
		return next, domain.Result{
			NodeID: next.CurrentNodeID,
			OK:     true,
			Events: []domain.Event{{Type: domain.EventAnswered, NodeID: cmd.NodeID, Pending: len(next.Pending)}},
		}, nil

	case domain.CommandEnqueue:
		next, ok := e.Enqueue(state, cmd.NodeID)
		res := domain.Result{NodeID: next.CurrentNodeID, OK: ok}
		if ok {
			res.Events = []domain.Event{{Type: domain.EventEnqueued, NodeID: cmd.NodeID, Pending: len(next.Pending)}}
		}
		return next, res, nil

	case domain.CommandAdvance:
		from := state.CurrentNodeID
		next, dest := e.Advance(state)
		res := domain.Result{NodeID: dest, OK: from != domain.EndID}
		if res.OK {
			res.Events = []domain.Event{{Type: domain.EventAdvanced, NodeID: dest, From: from, Pending: len(next.Pending)}}
		}
		return next, res, nil

	case domain.CommandBack:
		from := state.CurrentNodeID
		next, ok := e.Back(state)
		res := domain.Result{NodeID: next.CurrentNodeID, OK: ok}
		if ok {
			res.Events = []domain.Event{{Type: domain.EventBack, NodeID: next.CurrentNodeID, From: from, Pending: len(next.Pending)}}
		}
		return next, res, nil

	case domain.CommandClearAnswers:
		next := e.ClearAnswers(state)
		return next, domain.Result{NodeID: next.CurrentNodeID, OK: true}, nil

	case domain.CommandReset:
		next := e.Start()
		return next, domain.Result{
			NodeID: next.CurrentNodeID,
			OK:     true,
			Events: []domain.Event{{Type: domain.EventReset, NodeID: next.CurrentNodeID}},
		}, nil
	}

	return state, domain.Result{NodeID: state.CurrentNodeID}, fmt.Errorf("%w: %q", domain.ErrUnknownCommand, cmd.Kind)
}

func (e *Engine) rejected(state *domain.State, nodeID string) domain.Result {
	return domain.Result{
		NodeID: state.CurrentNodeID,
		Events: []domain.Event{{Type: domain.EventRejected, NodeID: nodeID, Pending: len(state.Pending)}},
	}
}
