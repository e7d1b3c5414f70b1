package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hpungsan/handoff/internal/deeplink"
	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/host/hosttest"
)

func TestDetectOS(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want OS
	}{
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", IOS},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X)", IOS},
		{"ipod", "Mozilla/5.0 (iPod touch; CPU iPhone OS 12_0)", IOS},
		{"android", "Mozilla/5.0 (Linux; Android 14; Pixel 8)", Android},
		{"mac", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0)", Desktop},
		{"windows", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", Desktop},
		{"empty", "", Desktop},
		{"curl", "curl/8.4.0", Desktop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectOS(tt.ua))
		})
	}
}

func TestDetectHostOS(t *testing.T) {
	assert.Equal(t, Desktop, DetectHostOS(nil))
	assert.Equal(t, Desktop, DetectHostOS(host.Headless{}))
	assert.Equal(t, Android, DetectHostOS(&hosttest.Host{UA: "Android"}))
}

func TestIsMobile(t *testing.T) {
	assert.True(t, IOS.IsMobile())
	assert.True(t, Android.IsMobile())
	assert.False(t, Desktop.IsMobile())
}

func TestDetectPlatform(t *testing.T) {
	assert.Equal(t, deeplink.Instagram, DetectPlatform("https://instagram.com/nasa"))
	assert.Equal(t, deeplink.Unknown, DetectPlatform(""))
}
