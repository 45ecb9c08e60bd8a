/*
Package dsl provides a Go DSL for programmatically constructing survey graphs.

It lets developers define branching questionnaires with a fluent builder instead of
YAML or JSON files. This is particularly useful for embedded surveys, unit tests and
IDE autocompletion/type-checking.

Example usage:

	b := dsl.New()

	b.Add("Start").
		Text("Welcome!").
		Next("Q1")

	b.Add("Q1").
		Text("Which topics interest you?").
		Multi(1, 2).
		Option("Go", "GoDetails").
		Option("Rust", "RustDetails")

	b.Add("GoDetails").Text("Why Go?").Next("Thanks")
	b.Add("RustDetails").Text("Why Rust?").Next("Thanks")
	b.Add("Thanks").Text("Thank you!").Terminal()

	graph, err := b.Build()
	// ... pass graph to survey.New(graph)
*/
package dsl
