package rdp

import (
	"os"
)

// Hook for testing; production uses the real home directory.
var userHomeDir = os.UserHomeDir

// ConnectionParams identifies the target of a session. Domain may be empty;
// Password is passed through to the client verbatim.
type ConnectionParams struct {
	Host     string
	Username string
	Domain   string
	Password string
}

// BuildArgs renders the argument list for the FreeRDP client. The token order
// is fixed so invocations are reproducible; flag spellings follow the
// xfreerdp command line.
func BuildArgs(params ConnectionParams, opts AdvancedOptions) []string {
	args := []string{"/v:" + params.Host}

	args = append(args, "/u:"+params.Username)
	if params.Domain != "" {
		args = append(args, "/d:"+params.Domain)
	}

	args = append(args, "/p:"+params.Password)

	if opts.Fullscreen {
		args = append(args, "/f")
	} else {
		resolution := opts.Resolution
		if resolution == "" {
			resolution = Resolutions[0]
		}
		args = append(args, "/size:"+resolution)
	}

	if opts.Multimon {
		args = append(args, "/multimon")
		if len(opts.SelectedMonitors) > 0 {
			args = append(args, "/monitors:"+MonitorListString(opts.SelectedMonitors))
		}
	}

	if opts.DisableFonts {
		args = append(args, "-fonts")
	}
	if opts.DisableWallpaper {
		args = append(args, "-wallpaper")
	}
	if opts.DisableThemes {
		args = append(args, "-themes")
	}
	if opts.DisableAero {
		args = append(args, "-aero")
	}
	if opts.DisableDrag {
		args = append(args, "-window-drag")
	}

	switch opts.AudioMode {
	case AudioLocal:
		args = append(args, "/sound:sys:alsa")
	case AudioRemote:
		args = append(args, "/audio-mode:1")
	case AudioDisabled:
		args = append(args, "/audio-mode:2")
	}

	if opts.Clipboard {
		args = append(args, "+clipboard")
	}

	if opts.RedirectDrives {
		home, err := userHomeDir()
		if err == nil && home != "" {
			args = append(args, "/drive:home,"+home)
		}
	}

	// Certificate prompts would block an unattended launch, so trust is
	// always overridden. Connections to hosts with unverified certificates
	// proceed without warning.
	args = append(args, "/cert-ignore")

	if opts.NLA {
		args = append(args, "/sec:nla")
	} else {
		args = append(args, "/sec:rdp")
	}

	if opts.Compression {
		args = append(args, "+compression")
	}

	return args
}
