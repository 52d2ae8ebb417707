package scenario

// injectTranscriptionScript delivers a synthetic transcription message to
// the page, preferring the live websocket client's message handler and
// falling back to the custom event the app listens for in test builds.
// The message text arrives as the first script argument.
const injectTranscriptionScript = `
const text = arguments[0];
const event = {
  data: JSON.stringify({ type: 'transcription', text: text, isFinal: true })
};
if (window.webSocketClient && window.webSocketClient.ws && window.webSocketClient.ws.onmessage) {
  window.webSocketClient.ws.onmessage(event);
} else {
  document.dispatchEvent(new CustomEvent('test-transcription', {
    detail: { text: text, isFinal: true }
  }));
}
`
