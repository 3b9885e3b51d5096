package endpoint

import (
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/smazurov/livecast/internal/devices"
	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/internal/protocol"
)

// base holds what every variant shares: the settings copy, the encoder and
// the credentials set through SetAuthorization.
type base struct {
	settings protocol.ConnectionSettings
	enc      Encoder
	logger   *slog.Logger

	mu       sync.Mutex
	username string
	password string
	released bool
}

func (b *base) init(settings protocol.ConnectionSettings, enc Encoder) {
	b.settings = settings
	b.enc = enc
	b.logger = logging.GetLogger("endpoint").With("protocol", settings.Protocol.String())
	b.username = settings.Username
	b.password = settings.Password
}

func (b *base) Kind() protocol.Kind { return b.settings.Protocol }

// PrepareAudio prepares audio capture. An unsupported format is retried once
// with FallbackAudio; a busy device fails immediately.
func (b *base) PrepareAudio(p AudioParams) error {
	err := b.enc.PrepareAudio(p)
	if err == nil || !errors.Is(err, ErrUnsupportedAudioFormat) {
		return err
	}

	fallback := FallbackAudio
	fallback.EchoCancel = p.EchoCancel
	fallback.NoiseSuppress = p.NoiseSuppress
	if p.BitrateBps > 0 {
		fallback.BitrateBps = p.BitrateBps
	}
	b.logger.Warn("Audio format rejected, retrying with fallback",
		"sample_rate", p.SampleRate, "stereo", p.Stereo, "fallback_rate", fallback.SampleRate, "error", err)
	return b.enc.PrepareAudio(fallback)
}

func (b *base) PrepareVideo(p VideoParams) error { return b.enc.PrepareVideo(p) }

func (b *base) StopStream() { b.enc.StopStream() }

func (b *base) StartRecord(path string, listener RecordListener) error {
	return b.enc.StartRecord(path, listener)
}

func (b *base) StopRecord() { b.enc.StopRecord() }

func (b *base) StartPreview(facing devices.Facing, rotationDeg int) error {
	return b.enc.StartPreview(facing, rotationDeg)
}

func (b *base) StopPreview() { b.enc.StopPreview() }

func (b *base) ReplaceView(s Surface) { b.enc.ReplaceView(s) }

func (b *base) SwitchCamera() error { return b.enc.SwitchCamera() }

func (b *base) EnableLantern() error { return b.enc.SetTorch(true) }

func (b *base) DisableLantern() error { return b.enc.SetTorch(false) }

func (b *base) SetZoom(level float64) { b.enc.SetZoom(level) }

func (b *base) TapToFocus(x, y float64) { b.enc.TapToFocus(x, y) }

func (b *base) CameraControl() (CameraControllable, bool) { return b.enc.CameraControl() }

func (b *base) SetVideoBitrateOnFly(bps int64) { b.enc.SetVideoBitrate(bps) }

func (b *base) SetAudioEnabled(enabled bool) { b.enc.SetAudioEnabled(enabled) }

func (b *base) HasCongestion() bool { return b.enc.HasCongestion() }

func (b *base) IsStreaming() bool { return b.enc.IsStreaming() }

func (b *base) IsRecording() bool { return b.enc.IsRecording() }

func (b *base) IsPreviewing() bool { return b.enc.IsPreviewing() }

// Release stops every output and frees the camera. It is idempotent.
func (b *base) Release() {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	b.released = true
	b.mu.Unlock()

	b.logger.Debug("Releasing endpoint")
	b.enc.Release()
}

func (b *base) isReleased() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// setCredentials stores credentials for the next StartStream.
func (b *base) setCredentials(user, pass string) {
	b.mu.Lock()
	b.username, b.password = user, pass
	b.mu.Unlock()
}

// withCredentials injects the stored credentials into rawURL when it
// carries none and both values are set.
func (b *base) withCredentials(rawURL string) (string, error) {
	b.mu.Lock()
	user, pass := b.username, b.password
	b.mu.Unlock()

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.User == nil && user != "" && pass != "" {
		u.User = url.UserPassword(user, pass)
	}
	return u.String(), nil
}

// tlsOptions returns the tls protocol options for a TLS kind. A self-signed
// server is trusted through CertFile as the CA bundle; otherwise the peer is
// verified against the system store.
func (b *base) tlsOptions() map[string]string {
	opts := map[string]string{}
	if !b.settings.Protocol.UsesTLS() {
		return opts
	}
	switch {
	case b.settings.SelfSignedCert && b.settings.CertFile != "":
		opts["tls_verify"] = "1"
		opts["ca_file"] = b.settings.CertFile
	case b.settings.SelfSignedCert:
		opts["tls_verify"] = "0"
	default:
		opts["tls_verify"] = "1"
	}
	if b.settings.CertPassword != "" {
		b.logger.Warn("Certificate password is not supported by the encoder and is ignored")
	}
	return opts
}

func (b *base) start(target StreamTarget) error {
	if b.isReleased() {
		return ErrReleased
	}
	return b.enc.StartStream(target)
}
