// internal/browser/devices.go
package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp/device"
)

// PhoneType identifies a device from the mobile emulation catalogue.
type PhoneType int

const (
	KindleFireHDX PhoneType = iota
	IPad
	IPadMini
	IPadPro
	IPhone4
	IPhone5
	IPhone6
	IPhone6Plus
	BlackBerryPlayBook
	BlackBerryZ30
	Nexus10
	Nexus4
	Nexus5
	Nexus6
	Nexus7
	LGOptimusL70
	MicrosoftLumia550
	MicrosoftLumia950
	Nexus5X
	Nexus6P
	NokiaLumia520
	NokiaN9
	GalaxyNote2
	GalaxyNote3
	GalaxyS3
	GalaxyS5
)

const chromeVersion = "87.0.4280.88"

var (
	iosUA       = "Mozilla/5.0 (iPhone; CPU iPhone OS 11_0 like Mac OS X) AppleWebKit/604.1.38 (KHTML, like Gecko) Version/11.0 Mobile/15A372 Safari/604.1"
	ipadUA      = "Mozilla/5.0 (iPad; CPU OS 11_0 like Mac OS X) AppleWebKit/604.1.34 (KHTML, like Gecko) Version/11.0 Mobile/15A5341f Safari/604.1"
	galaxyOldUA = "Mozilla/5.0 (Linux; U; Android %s; en-us; %s) AppleWebKit/534.30 (KHTML, like Gecko) Version/4.0 Mobile Safari/534.30"
)

func androidUA(release, build string, mobile bool) string {
	suffix := "Safari/537.36"
	if mobile {
		suffix = "Mobile Safari/537.36"
	}
	return fmt.Sprintf("Mozilla/5.0 (Linux; Android %s; %s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s %s", release, build, chromeVersion, suffix)
}

// phones is indexed by PhoneType. Names match the chromedriver device presets.
var phones = []device.Info{
	KindleFireHDX: {"Kindle Fire HDX", "Mozilla/5.0 (Linux; U; en-us; KFAPWI Build/JDQ39) AppleWebKit/535.19 (KHTML, like Gecko) Silk/3.13 Safari/535.19 Silk-Accelerated=true", 800, 1280, 2, false, true, true},
	IPad:          {"iPad", ipadUA, 768, 1024, 2, false, true, true},
	IPadMini:      {"iPad Mini", ipadUA, 768, 1024, 2, false, true, true},
	IPadPro:       {"iPad Pro", ipadUA, 1024, 1366, 2, false, true, true},
	IPhone4:       {"iPhone 4", "Mozilla/5.0 (iPhone; CPU iPhone OS 7_1_2 like Mac OS X) AppleWebKit/537.51.2 (KHTML, like Gecko) Version/7.0 Mobile/11D257 Safari/9537.53", 320, 480, 2, false, true, true},
	IPhone5:       {"iPhone 5", "Mozilla/5.0 (iPhone; CPU iPhone OS 10_3_1 like Mac OS X) AppleWebKit/603.1.30 (KHTML, like Gecko) Version/10.0 Mobile/14E304 Safari/602.1", 320, 568, 2, false, true, true},
	IPhone6:       {"iPhone 6", iosUA, 375, 667, 2, false, true, true},
	IPhone6Plus:   {"iPhone 6 Plus", iosUA, 414, 736, 3, false, true, true},

	BlackBerryPlayBook: {"Blackberry PlayBook", "Mozilla/5.0 (PlayBook; U; RIM Tablet OS 2.1.0; en-US) AppleWebKit/536.2+ (KHTML like Gecko) Version/7.2.1.0 Safari/536.2+", 600, 1024, 1, false, true, true},
	BlackBerryZ30:      {"BlackBerry Z30", "Mozilla/5.0 (BB10; Touch) AppleWebKit/537.10+ (KHTML, like Gecko) Version/10.0.9.2372 Mobile Safari/537.10+", 360, 640, 2, false, true, true},

	Nexus10: {"Nexus 10", androidUA("6.0.1", "Nexus 10 Build/MOB31T", false), 800, 1280, 2, false, true, true},
	Nexus4:  {"Nexus 4", androidUA("4.4.2", "Nexus 4 Build/KOT49H", true), 384, 640, 2, false, true, true},
	Nexus5:  {"Nexus 5", androidUA("6.0", "Nexus 5 Build/MRA58N", true), 360, 640, 3, false, true, true},
	Nexus6:  {"Nexus 6", androidUA("7.1.1", "Nexus 6 Build/N6F26U", true), 412, 732, 3.5, false, true, true},
	Nexus7:  {"Nexus 7", androidUA("6.0.1", "Nexus 7 Build/MOB30X", false), 600, 960, 2, false, true, true},

	LGOptimusL70:      {"LG Optimus L70", "Mozilla/5.0 (Linux; U; Android 4.4.2; en-us; LGMS323 Build/KOT49I.MS32310c) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/" + chromeVersion + " Mobile Safari/537.36", 384, 640, 1.25, false, true, true},
	MicrosoftLumia550: {"Microsoft Lumia 550", "Mozilla/5.0 (Windows Phone 10.0; Android 4.2.1; Microsoft; Lumia 550) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/42.0.2311.135 Mobile Safari/537.36 Edge/14.14263", 640, 360, 2, false, true, true},
	MicrosoftLumia950: {"Microsoft Lumia 950", "Mozilla/5.0 (Windows Phone 10.0; Android 4.2.1; Microsoft; Lumia 950) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/46.0.2486.0 Mobile Safari/537.36 Edge/13.10586", 360, 640, 4, false, true, true},

	Nexus5X: {"Nexus 5X", androidUA("8.0.0", "Nexus 5X Build/OPR4.170623.006", true), 412, 732, 2.625, false, true, true},
	Nexus6P: {"Nexus 6P", androidUA("8.0.0", "Nexus 6P Build/OPP3.170518.006", true), 412, 732, 3.5, false, true, true},

	NokiaLumia520: {"Nokia Lumia 520", "Mozilla/5.0 (compatible; MSIE 10.0; Windows Phone 8.0; Trident/6.0; IEMobile/10.0; ARM; Touch; NOKIA; Lumia 520)", 320, 533, 1.5, false, true, true},
	NokiaN9:       {"Nokia N9", "Mozilla/5.0 (MeeGo; NokiaN9) AppleWebKit/534.13 (KHTML, like Gecko) NokiaBrowser/8.5.0 Mobile Safari/534.13", 480, 854, 1, false, true, true},

	GalaxyNote2: {"Galaxy Note II", fmt.Sprintf(galaxyOldUA, "4.1", "GT-N7100 Build/JRO03C"), 360, 640, 2, false, true, true},
	GalaxyNote3: {"Galaxy Note 3", fmt.Sprintf(galaxyOldUA, "4.3", "SM-N900T Build/JSS15J"), 360, 640, 3, false, true, true},
	GalaxyS3:    {"Galaxy S III", fmt.Sprintf(galaxyOldUA, "4.0", "GT-I9300 Build/IMM76D"), 360, 640, 2, false, true, true},
	GalaxyS5:    {"Galaxy S5", androidUA("5.0", "SM-G900P Build/LRX21T", true), 360, 640, 3, false, true, true},
}

// Valid reports whether p is in the catalogue.
func (p PhoneType) Valid() bool {
	return p >= 0 && int(p) < len(phones)
}

// Name returns the chromedriver device name.
func (p PhoneType) Name() string {
	if !p.Valid() {
		return ""
	}
	return phones[p].Name
}

func (p PhoneType) String() string {
	if !p.Valid() {
		return fmt.Sprintf("PhoneType(%d)", int(p))
	}
	return phones[p].Name
}

// Device satisfies chromedp.Device so a PhoneType can be passed to chromedp.Emulate.
func (p PhoneType) Device() device.Info {
	if !p.Valid() {
		return device.Info{}
	}
	return phones[p]
}

// Phones lists the catalogue in declaration order.
func Phones() []PhoneType {
	out := make([]PhoneType, len(phones))
	for i := range phones {
		out[i] = PhoneType(i)
	}
	return out
}

// ParsePhoneType matches a device name ignoring case, spaces, dashes and underscores.
func ParsePhoneType(name string) (PhoneType, error) {
	want := normalizeDeviceName(name)
	for i, info := range phones {
		if normalizeDeviceName(info.Name) == want {
			return PhoneType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phone type %q", name)
}

func normalizeDeviceName(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s))
}
