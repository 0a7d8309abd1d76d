// internal/browser/devices_test.go
package browser

import (
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// PhoneType must keep satisfying chromedp.Device for DevTools emulation.
var _ chromedp.Device = PhoneType(0)

func TestPhones_Catalogue(t *testing.T) {
	phones := Phones()
	assert.Len(t, phones, 26)
	assert.Equal(t, KindleFireHDX, phones[0])
	assert.Equal(t, GalaxyS5, phones[len(phones)-1])

	seen := make(map[string]bool)
	for _, p := range phones {
		info := p.Device()
		if info.Name == "" || info.UserAgent == "" {
			t.Errorf("%d: incomplete device info %+v", int(p), info)
		}
		if info.Width <= 0 || info.Height <= 0 || info.Scale <= 0 {
			t.Errorf("%s: bad metrics %dx%d@%v", p, info.Width, info.Height, info.Scale)
		}
		if !info.Mobile || !info.Touch {
			t.Errorf("%s: expected a mobile touch device", p)
		}
		if seen[info.Name] {
			t.Errorf("duplicate device name %q", info.Name)
		}
		seen[info.Name] = true
	}
}

func TestPhoneType_Lookup(t *testing.T) {
	tests := []struct {
		in   string
		want PhoneType
	}{
		{"iPhone 6 Plus", IPhone6Plus},
		{"iphone6plus", IPhone6Plus},
		{"galaxy_note_3", GalaxyNote3},
		{"Nexus-5X", Nexus5X},
		{"Kindle Fire HDX", KindleFireHDX},
		{"microsoft lumia 950", MicrosoftLumia950},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePhoneType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParsePhoneType("Pixel 9")
	assert.Error(t, err)
}

func TestPhoneType_Invalid(t *testing.T) {
	p := PhoneType(len(Phones()))
	assert.False(t, p.Valid())
	assert.Empty(t, p.Name())
	assert.Equal(t, "PhoneType(26)", p.String())
	assert.Empty(t, p.Device().Name)
}

func TestPhoneType_Names(t *testing.T) {
	assert.Equal(t, "iPad Mini", IPadMini.Name())
	assert.Equal(t, "Galaxy S III", GalaxyS3.String())
	assert.Equal(t, "Blackberry PlayBook", BlackBerryPlayBook.Name())
	assert.Contains(t, Nexus7.Device().UserAgent, "Nexus 7 Build/MOB30X")
	assert.NotContains(t, Nexus7.Device().UserAgent, "Mobile Safari")
}
