package rdp

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.Fullscreen {
		t.Error("expected fullscreen by default")
	}
	if opts.Resolution != "1920x1080" {
		t.Errorf("default resolution = %q, want 1920x1080", opts.Resolution)
	}
	if opts.Multimon {
		t.Error("multimon should default to off")
	}
	if len(opts.SelectedMonitors) != 0 {
		t.Errorf("selected monitors should default to empty, got %v", opts.SelectedMonitors)
	}
	if !opts.DisableFonts || !opts.DisableWallpaper || !opts.DisableThemes || !opts.DisableAero || !opts.DisableDrag {
		t.Error("performance disables should all default to on")
	}
	if !opts.Compression {
		t.Error("compression should default to on")
	}
	if opts.AudioMode != AudioLocal {
		t.Errorf("audio mode = %q, want %q", opts.AudioMode, AudioLocal)
	}
	if !opts.Clipboard {
		t.Error("clipboard should default to on")
	}
	if opts.RedirectDrives {
		t.Error("drive redirection should default to off")
	}
	if !opts.NLA {
		t.Error("NLA should default to on")
	}
}

func TestOptionsMergeOverDefaults(t *testing.T) {
	// A partial stored document overrides only the keys it carries,
	// including explicit false values.
	stored := `{"fullscreen": false, "resolution": "1280x720", "compression": false}`

	opts := DefaultOptions()
	if err := json.Unmarshal([]byte(stored), &opts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if opts.Fullscreen {
		t.Error("stored fullscreen=false should override the default")
	}
	if opts.Resolution != "1280x720" {
		t.Errorf("resolution = %q, want 1280x720", opts.Resolution)
	}
	if opts.Compression {
		t.Error("stored compression=false should override the default")
	}
	// Untouched keys keep their defaults.
	if !opts.NLA {
		t.Error("nla should keep its default when absent from the document")
	}
	if !opts.DisableFonts {
		t.Error("disable_fonts should keep its default when absent from the document")
	}
}

func TestParseMonitorList(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"single", "0", []int{0}},
		{"pair", "0,1", []int{0, 1}},
		{"spaces around tokens", " 1 , 2 ", []int{1, 2}},
		{"order preserved", "2,0,1", []int{2, 0, 1}},
		{"malformed token discards all", "0,1,x", nil},
		{"trailing comma discards all", "0,1,", nil},
		{"negative discards all", "0,-1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMonitorList(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseMonitorList(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestMonitorListString(t *testing.T) {
	if got := MonitorListString(nil); got != "" {
		t.Errorf("empty selection = %q, want empty string", got)
	}
	if got := MonitorListString([]int{0, 2}); got != "0,2" {
		t.Errorf("MonitorListString = %q, want 0,2", got)
	}
}

func TestMonitorListRoundTrip(t *testing.T) {
	text := "0,1,3"
	monitors := ParseMonitorList(text)
	if got := MonitorListString(monitors); got != text {
		t.Errorf("round trip = %q, want %q", got, text)
	}
}
