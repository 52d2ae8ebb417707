package scenario_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedictaitor/uiprobe/internal/config"
	"github.com/benedictaitor/uiprobe/internal/scenario"
	"github.com/benedictaitor/uiprobe/internal/session"
	"github.com/benedictaitor/uiprobe/internal/testutil"
)

const (
	startButton   = `button[data-testid="start-recording"]`
	stopButton    = `button[data-testid="stop-recording"]`
	transcriptBox = `[data-testid="transcript-container"]`
	languageSel   = `select[data-testid="language-selector"]`
	translateBox  = `[data-testid="translation-container"]`
)

// teacherPage populates the fake with the teacher surface, including the
// recording button state machine.
func teacherPage(d *testutil.FakeDriver) {
	d.PageTitle = "Benedictaitor"
	d.AddElement("header", testutil.FakeElement{TextContent: "Benedictaitor"})
	d.AddElement(startButton, testutil.FakeElement{})
	d.AddElement(stopButton, testutil.FakeElement{
		Attributes: map[string]string{"disabled": "true"},
	})
	d.AddElement(transcriptBox, testutil.FakeElement{})

	d.OnClick[startButton] = func(f *testutil.FakeDriver) {
		f.SetAttribute(stopButton, "disabled", "")
	}
	d.OnClick[stopButton] = func(f *testutil.FakeDriver) {
		f.SetAttribute(stopButton, "disabled", "true")
	}
}

// studentPage populates the fake with the student surface.
func studentPage(d *testutil.FakeDriver) {
	d.PageTitle = "Benedictaitor"
	d.AddElement("header", testutil.FakeElement{TextContent: "Benedictaitor"})
	d.AddElement(languageSel, testutil.FakeElement{
		Attributes: map[string]string{"value": "en-US"},
	})
	d.AddElement(translateBox, testutil.FakeElement{})
}

// runBuiltin executes one built-in scenario by name against the fake.
func runBuiltin(t *testing.T, name string, d *testutil.FakeDriver) error {
	t.Helper()

	cfg := config.Default()
	cfg.DefaultTimeout = 5 * time.Second
	cfg.PollInterval = 10 * time.Millisecond

	sess := &session.Session{ID: "suite-test", Backend: "fake", Driver: d}
	st := scenario.NewT(context.Background(), sess, cfg, nil, 1)
	defer st.Close()

	for _, sc := range scenario.BuiltinSuite().All() {
		if sc.Name == name {
			return sc.Step(st)
		}
	}
	t.Fatalf("no built-in scenario named %q", name)
	return nil
}

func TestTeacherInterface(t *testing.T) {
	d := testutil.NewFakeDriver()
	teacherPage(d)

	require.NoError(t, runBuiltin(t, "01-teacher-interface", d))
	assert.Equal(t, []string{"http://localhost:3000/teacher"}, d.Navigations)
}

func TestTeacherInterface_MissingControl(t *testing.T) {
	d := testutil.NewFakeDriver()
	d.PageTitle = "Benedictaitor"
	d.AddElement("header", testutil.FakeElement{})
	// Start button never renders.
	d.AddElement(stopButton, testutil.FakeElement{})
	d.AddElement(transcriptBox, testutil.FakeElement{})

	err := runBuiltin(t, "01-teacher-interface", d)
	require.Error(t, err)
	assert.True(t, scenario.IsAssertion(err))
	assert.Contains(t, err.Error(), "start recording button")
}

func TestStudentInterface(t *testing.T) {
	d := testutil.NewFakeDriver()
	studentPage(d)

	require.NoError(t, runBuiltin(t, "02-student-interface", d))
	assert.Equal(t, []string{"http://localhost:3000/student"}, d.Navigations)
}

func TestLanguageSelection(t *testing.T) {
	d := testutil.NewFakeDriver()
	studentPage(d)

	require.NoError(t, runBuiltin(t, "03-language-selection", d))
}

func TestRecordingButtons(t *testing.T) {
	d := testutil.NewFakeDriver()
	teacherPage(d)

	require.NoError(t, runBuiltin(t, "04-recording-buttons", d))
}

func TestRecordingButtons_NeverEnables(t *testing.T) {
	d := testutil.NewFakeDriver()
	teacherPage(d)
	// Clicking start has no effect on this broken page.
	d.OnClick[startButton] = func(*testutil.FakeDriver) {}

	err := runBuiltin(t, "04-recording-buttons", d)
	require.Error(t, err)
	assert.True(t, scenario.IsAssertion(err))
	assert.Contains(t, err.Error(), "enabled after clicking start")
}

func TestTranscriptionDisplay(t *testing.T) {
	d := testutil.NewFakeDriver()
	teacherPage(d)
	d.ScriptFunc = func(script string, args []any) (any, error) {
		if strings.Contains(script, "webSocketClient") && len(args) == 1 {
			if text, ok := args[0].(string); ok {
				d.SetText(transcriptBox, text)
			}
		}
		return nil, nil
	}

	require.NoError(t, runBuiltin(t, "05-transcription-display", d))
	assert.True(t, d.ScriptEvaluated("test-transcription"))
}

func TestTranscriptionDisplay_NeverRenders(t *testing.T) {
	d := testutil.NewFakeDriver()
	teacherPage(d)

	// The page ignores the injected message: the transcript stays empty.
	err := runBuiltin(t, "05-transcription-display", d)
	require.Error(t, err)
	assert.True(t, scenario.IsAssertion(err))
	assert.Contains(t, err.Error(), "never appeared")
}

func TestMockRecordingStream(t *testing.T) {
	d := testutil.NewFakeDriver()
	teacherPage(d)

	require.NoError(t, runBuiltin(t, "06-mock-recording-stream", d))

	// The mock was installed and the chunk stream reached the page.
	assert.True(t, d.ScriptEvaluated("getUserMedia"))
	assert.True(t, d.ScriptEvaluated("audio-chunk"))
	assert.True(t, d.ScriptEvaluated("recording-stopped"))
}
