package session

import "github.com/aretw0/survey/pkg/domain"

// NodeView is the client-facing shape of a question.
type NodeView struct {
	ID         string   `json:"id"`
	Text       string   `json:"text,omitempty"`
	Options    []string `json:"options,omitempty"`
	AllowMulti bool     `json:"allow_multi,omitempty"`
	MinSelect  int      `json:"min_select,omitempty"`
	MaxSelect  int      `json:"max_select,omitempty"`
	Terminal   bool     `json:"terminal,omitempty"`
}

// View is the client-facing shape of a session, shared by the remote adapters.
type View struct {
	SessionID string         `json:"session_id"`
	Current   NodeView       `json:"current"`
	Next      string         `json:"next"`
	CanGoBack bool           `json:"can_go_back"`
	Finished  bool           `json:"finished"`
	Pending   []string       `json:"pending"`
	Visited   []string       `json:"visited"`
	History   []string       `json:"history"`
	Answers   map[string]any `json:"answers"`
}

// CommandView pairs the session after a command with the command outcome.
type CommandView struct {
	Session View          `json:"session"`
	Result  domain.Result `json:"result"`
}

// View renders state for clients.
func (m *Manager) View(sessionID string, s *domain.State) View {
	next := m.nav.PeekNext(s)
	return View{
		SessionID: sessionID,
		Current:   newNodeView(m.nav.Graph(), s.CurrentNodeID),
		Next:      next,
		CanGoBack: len(s.History) > 0,
		Finished:  next == domain.EndID,
		Pending:   s.PendingIDs(),
		Visited:   append([]string{}, s.Visited...),
		History:   s.HistoryNodeIDs(),
		Answers:   s.Answers.Merged(),
	}
}

func newNodeView(g *domain.Graph, id string) NodeView {
	node, err := g.Node(id)
	if err != nil {
		return NodeView{ID: id}
	}
	return NodeView{
		ID:         node.ID,
		Text:       node.Text,
		Options:    node.DisplayOrder(),
		AllowMulti: node.AllowMulti,
		MinSelect:  node.MinSelect,
		MaxSelect:  node.MaxSelect,
		Terminal:   node.IsEnd(),
	}
}
