package garmin

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/typedef"
)

// VerifyResult describes a payload that passed verification.
type VerifyResult struct {
	Format Format
	// Records is the number of FIT record messages. Zero for XML formats.
	Records int
	// Root is the XML root element name. Empty for FIT.
	Root string
}

var errEmptyPayload = errors.New("empty payload")

// Verify checks that data looks like a well-formed file of the given format.
// It never modifies data.
func Verify(format Format, data []byte) (VerifyResult, error) {
	if len(data) == 0 {
		return VerifyResult{Format: format}, errEmptyPayload
	}

	switch format {
	case FormatGPX:
		return verifyXML(format, data, "gpx")
	case FormatTCX:
		return verifyXML(format, data, "TrainingCenterDatabase")
	default:
		return verifyFIT(data)
	}
}

func verifyFIT(data []byte) (VerifyResult, error) {
	result := VerifyResult{Format: FormatOriginal}

	fit, err := decoder.New(bytes.NewReader(data)).Decode()
	if err != nil {
		return result, fmt.Errorf("failed to decode FIT payload: %w", err)
	}

	for _, msg := range fit.Messages {
		if msg.Num == typedef.MesgNumRecord {
			result.Records++
		}
	}
	return result, nil
}

func verifyXML(format Format, data []byte, wantRoot string) (VerifyResult, error) {
	result := VerifyResult{Format: format}

	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return result, fmt.Errorf("failed to parse %s payload: %w", format, err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			result.Root = start.Name.Local
			break
		}
	}

	if result.Root != wantRoot {
		return result, fmt.Errorf("unexpected %s root element <%s>, want <%s>", format, result.Root, wantRoot)
	}

	// Walk the rest so truncated documents are caught.
	for {
		if _, err := dec.Token(); err != nil {
			if errors.Is(err, io.EOF) {
				return result, nil
			}
			return result, fmt.Errorf("failed to parse %s payload: %w", format, err)
		}
	}
}
