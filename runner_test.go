package survey_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run(t *testing.T) {
	eng := newSurvey(t, 0)

	input := strings.Join([]string{
		"",     // Start
		"Yes",  // Q1
		"3,1",  // Q2 -> C, A by display number
		"back", // undo the move onto A1
		"",     // Q2 again, keep the answer
		"",     // A1
		"",     // A2
		"note", // C1 has no options: stored as text
		"done", // Q3
	}, "\n") + "\n"

	var out bytes.Buffer
	r := survey.NewRunner()
	r.Input = strings.NewReader(input)
	r.Output = &out
	r.Headless = true

	require.NoError(t, r.Run(eng))

	sel, _ := eng.ChoiceAnswer("Q2")
	assert.Equal(t, []string{"C", "A"}, sel)
	text, _ := eng.TextAnswer("C1")
	assert.Equal(t, "note", text)

	got := out.String()
	assert.Contains(t, got, "Pick")
	assert.Contains(t, got, "  1) A")
	assert.Contains(t, got, "(choose 1 to 2)")
	assert.Contains(t, got, "Done.")
	assert.Contains(t, got, "Q2: C, A")
	assert.Contains(t, got, "Q3: done")
}

func TestRunner_InvalidAnswerReprompts(t *testing.T) {
	eng := newSurvey(t, 0)

	var out bytes.Buffer
	r := survey.NewRunner()
	r.Input = strings.NewReader("\nYes\nA B C\nexit\n")
	r.Output = &out
	r.Headless = true

	require.NoError(t, r.Run(eng))
	assert.Contains(t, out.String(), "Invalid answer")
	assert.Contains(t, out.String(), "Bye!")
	assert.Equal(t, "Q2", eng.CurrentNodeID())
}

func TestRunner_RendererAndEOF(t *testing.T) {
	eng := newSurvey(t, 0)

	var out bytes.Buffer
	r := survey.NewRunner()
	r.Input = strings.NewReader("")
	r.Output = &out
	r.Renderer = func(s string) (string, error) { return "## " + s, nil }

	require.NoError(t, r.Run(eng))
	assert.Contains(t, out.String(), "## Welcome")
	assert.Contains(t, out.String(), "--- Survey ---")
}

func TestRunner_RequiresIO(t *testing.T) {
	eng := newSurvey(t, 0)
	assert.Error(t, survey.NewRunner().Run(eng))
}

func TestRunner_RunContextCancel(t *testing.T) {
	eng := newSurvey(t, 0)

	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	r := survey.NewRunner()
	r.Input = pr
	r.Output = &out
	r.Headless = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.RunContext(ctx, eng) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("RunContext did not return after cancel")
	}

	// A second run reuses the same input pump.
	go func() { _, _ = pw.Write([]byte("\nexit\n")) }()
	require.NoError(t, r.Run(eng))
	assert.Equal(t, "Q1", eng.CurrentNodeID())
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunner_Close(t *testing.T) {
	eng := newSurvey(t, 0)

	pr, pw := io.Pipe()
	defer pw.Close()

	r := survey.NewRunner()
	r.Input = pr
	r.Output = io.Discard
	r.Headless = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.RunContext(ctx, eng) }()
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	r.Close()
	r.Close()

	// The pump takes the pending line and quits instead of waiting for a reader.
	wrote := make(chan struct{})
	go func() {
		_, _ = pw.Write([]byte("\n"))
		close(wrote)
	}()
	select {
	case <-wrote:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not read after Close")
	}

	require.NoError(t, r.Run(eng))
	assert.Equal(t, "Start", eng.CurrentNodeID())
}
