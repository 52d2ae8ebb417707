package mockrec

// patchScript replaces the page's hardware-acquisition entry points with
// deterministic fakes so no real permission prompt or device is needed.
//
// getUserMedia resolves synchronously with a fake stream carrying a single
// fake audio track. MediaRecorder is replaced with a scripted double whose
// dataavailable events are driven from the harness side via the
// 'mock-recorder' custom events dispatched by Recorder.
const patchScript = `
(function () {
  if (window.__uiprobeMockInstalled) { return; }
  window.__uiprobeMockInstalled = true;

  const mockTrack = {
    kind: 'audio',
    enabled: true,
    id: 'mock-audio-track-id',
    label: 'Mock Audio Track',
    stop: function () {}
  };

  const mockStream = {
    id: 'mock-stream-id',
    active: true,
    getTracks: function () { return [mockTrack]; },
    getAudioTracks: function () { return [mockTrack]; },
    getVideoTracks: function () { return []; },
    addTrack: function () {},
    removeTrack: function () {},
    clone: function () { return mockStream; }
  };

  navigator.mediaDevices.getUserMedia = function () {
    return Promise.resolve(mockStream);
  };

  window.MediaRecorder = class MockMediaRecorder {
    constructor(stream) {
      this.stream = stream;
      this.state = 'inactive';
      this.mimeType = 'audio/webm';
      this.ondataavailable = null;
      this.onstart = null;
      this.onstop = null;
      this.onpause = null;
      this.onresume = null;

      document.addEventListener('mock-recorder', (e) => {
        const d = e.detail || {};
        if (d.event === 'audio-chunk' && this.state === 'recording' && this.ondataavailable) {
          const ev = new Event('dataavailable');
          ev.data = new Blob([new Uint8Array(d.length)], { type: 'audio/webm' });
          this.ondataavailable(ev);
        }
      });
    }

    start() {
      this.state = 'recording';
      if (this.onstart) { this.onstart(new Event('start')); }
    }

    stop() {
      if (this.state === 'inactive') { return; }
      this.state = 'inactive';
      if (this.onstop) { this.onstop(new Event('stop')); }
    }

    pause() {
      this.state = 'paused';
      if (this.onpause) { this.onpause(new Event('pause')); }
    }

    resume() {
      this.state = 'recording';
      if (this.onresume) { this.onresume(new Event('resume')); }
    }

    static isTypeSupported(mimeType) {
      return ['audio/webm', 'audio/wav', 'audio/ogg'].includes(mimeType);
    }
  };
})();
`
