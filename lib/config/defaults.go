package config

const (
	DefaultTargetName     = "protean-target-test"
	DefaultModelScale     = 10.0
	DefaultModelRotationX = 90.0
	DefaultTrackingListen = ":53100"
	DefaultHTTPListen     = ":8080"
	DefaultQLabPort       = 53000

	BackendBrowser = "browser"
	BackendQLab    = "qlab"
)

func Default() Config {
	return Config{
		TargetName:     DefaultTargetName,
		ModelScale:     DefaultModelScale,
		ModelRotationX: DefaultModelRotationX,
		AssetsDir:      "assets",
		Log: Log{
			Level:  "info",
			Format: "auto",
		},
		Tracking: Tracking{Listen: DefaultTrackingListen},
		HTTP:     HTTP{Listen: DefaultHTTPListen},
		Video: Video{
			Backend:  BackendBrowser,
			QLabHost: "127.0.0.1",
			QLabPort: DefaultQLabPort,
		},
		StreamDeck: StreamDeck{Brightness: 80},
		XTouch:     XTouch{Port: "x-touch"},
	}
}
