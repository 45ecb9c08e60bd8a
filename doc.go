/*
Package survey is a navigation engine for branching questionnaires.

A survey is a graph of question nodes. Answers select option keys, each key
schedules follow-up nodes, and the engine decides what comes next, keeps an
undo log for "back", and serializes everything so a session can survive a
process restart.

# Concept

The engine separates three kinds of data:

  - The Graph (pkg/domain): immutable nodes with options, selection bounds and a default successor.
  - The Answers: choice keys and free text per node. Back-navigation never reverts them.
  - The Navigation: current node, the pending queue fed by answers, the origin map
    that records which answer scheduled which node, and the visited set.

Changing an answer reconciles the pending queue. Children of the selected keys are
scheduled in lexical key order; a branch that is no longer selected is torn down
together with everything it scheduled and every answer given inside it.

# Usage

	b := dsl.New()
	b.Add("Start").Text("Welcome").Next("Q1")
	b.Add("Q1").Text("Continue?").Option("Yes", "Q2").Option("No", domain.EndID)
	b.Add("Q2").Text("Pick two").Multi(1, 2).Option("A", "A1", "A2").Option("B", "B1")
	b.Add("A1")
	b.Add("A2")
	b.Add("B1")

	graph, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	eng, err := survey.New(graph)
	if err != nil {
		log.Fatal(err)
	}

	eng.AdvanceToNext()                                  // Q1
	_ = eng.UpdateSingleAnswer("Q1", "Yes")              // queue: [Q2]
	eng.AdvanceToNext()                                  // Q2
	_ = eng.UpdateChoiceAnswer("Q2", []string{"B", "A"}) // queue: [A1 A2 B1]

	data, _ := eng.SnapshotJSON()
	// ... later, in another process
	_ = eng.RestoreFromJSON(data)

The Engine is safe for concurrent use. For request-scoped use, where each call loads
a session, applies one Command and saves it back, see pkg/session and the adapters
under pkg/adapters.
*/
package survey
