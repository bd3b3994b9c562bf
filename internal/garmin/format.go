package garmin

import (
	"strings"

	garminconnect "github.com/abrander/garmin-connect"
)

// Format selects the encoding of a downloaded activity.
type Format int

const (
	// FormatOriginal is the file as recorded by the device, usually FIT.
	FormatOriginal Format = iota
	FormatGPX
	FormatTCX
)

// ParseFormat maps a --format value to a Format. Unknown values fall back to
// FormatOriginal.
func ParseFormat(s string) Format {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GPX":
		return FormatGPX
	case "TCX":
		return FormatTCX
	default:
		return FormatOriginal
	}
}

func (f Format) String() string {
	switch f {
	case FormatGPX:
		return "GPX"
	case FormatTCX:
		return "TCX"
	default:
		return "FIT"
	}
}

func (f Format) exportFormat() garminconnect.ActivityFormat {
	switch f {
	case FormatGPX:
		return garminconnect.ActivityFormatGPX
	case FormatTCX:
		return garminconnect.ActivityFormatTCX
	default:
		return garminconnect.ActivityFormatFIT
	}
}
