package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/benedictaitor/uiprobe/internal/driver"
	"github.com/benedictaitor/uiprobe/internal/mockrec"
	"github.com/benedictaitor/uiprobe/internal/wait"
)

// Selectors for the application's two UI surfaces.
const (
	appTitle = "Benedictaitor"

	selHeader               = "header"
	selStartRecording       = `button[data-testid="start-recording"]`
	selStopRecording        = `button[data-testid="stop-recording"]`
	selTranscriptContainer  = `[data-testid="transcript-container"]`
	selLanguageSelector     = `select[data-testid="language-selector"]`
	selTranslationContainer = `[data-testid="translation-container"]`
)

const (
	// elementTimeout bounds individual element-presence checks; pages
	// that have already loaded render these quickly.
	elementTimeout = 5 * time.Second

	// toggleTimeout bounds button state flips after a click.
	toggleTimeout = 1 * time.Second
)

// BuiltinSuite registers the standard verification scenarios for the
// teacher and student surfaces, in execution order.
func BuiltinSuite() *Registry {
	reg := NewRegistry()
	reg.MustRegister(Scenario{Name: "01-teacher-interface", Step: stepTeacherInterface})
	reg.MustRegister(Scenario{Name: "02-student-interface", Step: stepStudentInterface})
	reg.MustRegister(Scenario{Name: "03-language-selection", Step: stepLanguageSelection})
	reg.MustRegister(Scenario{Name: "04-recording-buttons", Step: stepRecordingButtons})
	reg.MustRegister(Scenario{Name: "05-transcription-display", Step: stepTranscriptionDisplay})
	reg.MustRegister(Scenario{Name: "06-mock-recording-stream", Step: stepMockRecordingStream})
	return reg
}

// stepTeacherInterface verifies the teacher surface renders its essential
// controls: header, recording buttons, transcript container.
func stepTeacherInterface(t *T) error {
	if err := t.Navigate(t.Cfg.TeacherURL()); err != nil {
		return err
	}
	if err := t.WaitFor(wait.TitleContains(appTitle)); err != nil {
		return err
	}

	checks := []struct {
		selector string
		desc     string
	}{
		{selHeader, "header"},
		{selStartRecording, "start recording button"},
		{selStopRecording, "stop recording button"},
		{selTranscriptContainer, "transcript container"},
	}
	for _, c := range checks {
		if err := t.RequirePresent(c.selector, c.desc, elementTimeout); err != nil {
			return err
		}
	}
	return nil
}

// stepStudentInterface verifies the student surface renders its essential
// controls: header, language selector, translation container.
func stepStudentInterface(t *T) error {
	if err := t.Navigate(t.Cfg.StudentURL()); err != nil {
		return err
	}
	if err := t.WaitFor(wait.TitleContains(appTitle)); err != nil {
		return err
	}

	checks := []struct {
		selector string
		desc     string
	}{
		{selHeader, "header"},
		{selLanguageSelector, "language selector"},
		{selTranslationContainer, "translation container"},
	}
	for _, c := range checks {
		if err := t.RequirePresent(c.selector, c.desc, elementTimeout); err != nil {
			return err
		}
	}
	return nil
}

// stepLanguageSelection selects Spanish on the student surface and asserts
// the selector value sticks.
func stepLanguageSelection(t *T) error {
	if err := t.Navigate(t.Cfg.StudentURL()); err != nil {
		return err
	}
	if err := t.WaitFor(wait.TitleContains(appTitle)); err != nil {
		return err
	}
	if err := t.RequirePresent(selLanguageSelector, "language selector", elementTimeout); err != nil {
		return err
	}

	if err := t.Driver().SelectOption(t.Ctx, selLanguageSelector, "es-ES"); err != nil {
		return fmt.Errorf("select language: %w", err)
	}

	err := t.WaitForWithin(wait.AttributeEquals(selLanguageSelector, "value", "es-ES"), toggleTimeout)
	if wait.IsTimeout(err) {
		return Fail("language selector did not switch to es-ES")
	}
	return err
}

// stepRecordingButtons drives the recording-button state machine: stop is
// disabled at rest, enabled while recording, disabled again after stop.
func stepRecordingButtons(t *T) error {
	if err := t.Navigate(t.Cfg.TeacherURL()); err != nil {
		return err
	}
	if err := t.WaitFor(wait.TitleContains(appTitle)); err != nil {
		return err
	}
	if err := t.RequirePresent(selStopRecording, "stop recording button", elementTimeout); err != nil {
		return err
	}

	// Boolean attributes read "true" when set and "" when absent.
	err := t.WaitForWithin(wait.AttributeEquals(selStopRecording, "disabled", "true"), toggleTimeout)
	if wait.IsTimeout(err) {
		return Fail("stop button should be disabled before recording starts")
	}
	if err != nil {
		return err
	}

	if err := t.Click(selStartRecording); err != nil {
		return err
	}
	err = t.WaitForWithin(wait.AttributeEquals(selStopRecording, "disabled", ""), toggleTimeout)
	if wait.IsTimeout(err) {
		return Fail("stop button should be enabled after clicking start")
	}
	if err != nil {
		return err
	}

	if err := t.Click(selStopRecording); err != nil {
		return err
	}
	err = t.WaitForWithin(wait.AttributeEquals(selStopRecording, "disabled", "true"), toggleTimeout)
	if wait.IsTimeout(err) {
		return Fail("stop button should be disabled after clicking stop")
	}
	return err
}

// stepTranscriptionDisplay injects a synthetic transcription message into
// the page and asserts it shows up in the transcript container.
func stepTranscriptionDisplay(t *T) error {
	if err := t.Navigate(t.Cfg.TeacherURL()); err != nil {
		return err
	}
	if err := t.WaitFor(wait.TitleContains(appTitle)); err != nil {
		return err
	}
	if err := t.RequirePresent(selTranscriptContainer, "transcript container", elementTimeout); err != nil {
		return err
	}

	const testText = "This is a test transcription message"
	if _, err := t.Driver().EvaluateScript(t.Ctx, injectTranscriptionScript, testText); err != nil {
		return fmt.Errorf("inject transcription: %w", err)
	}

	err := t.WaitForWithin(wait.TextPresentIn(selTranscriptContainer, testText), elementTimeout)
	if wait.IsTimeout(err) {
		return Failf("transcription %q never appeared", testText)
	}
	return err
}

// stepMockRecordingStream installs the capture mock, records for a few
// intervals and asserts the chunk stream actually flowed.
func stepMockRecordingStream(t *T) error {
	if err := t.Navigate(t.Cfg.TeacherURL()); err != nil {
		return err
	}
	if err := t.WaitFor(wait.TitleContains(appTitle)); err != nil {
		return err
	}

	rec := t.NewRecorder(mockrec.Callbacks{})
	if err := rec.Install(t.Ctx); err != nil {
		return err
	}
	if err := rec.Start(t.Ctx, 250*time.Millisecond); err != nil {
		return err
	}

	const wantChunks = 4
	if err := t.WaitForWithin(chunkCondition(rec, wantChunks), t.Cfg.DefaultTimeout); err != nil {
		if wait.IsTimeout(err) {
			return Failf("expected at least %d chunks, got %d", wantChunks, rec.ChunkCount())
		}
		return err
	}

	if err := rec.Stop(t.Ctx); err != nil {
		return err
	}
	if state := rec.State(); state != mockrec.StateStopped {
		return Failf("recorder should be stopped, is %s", state)
	}
	return nil
}

// chunkCondition holds once the recorder has emitted at least want chunks.
func chunkCondition(rec *mockrec.Recorder, want int) wait.Condition {
	return wait.Custom(fmt.Sprintf("at least %d chunks emitted", want),
		func(ctx context.Context, d driver.Driver) (bool, error) {
			return rec.ChunkCount() >= want, nil
		})
}
