package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/zedarvates/storycore-grid/internal/errors"
)

// Supported panel image source schemes
const (
	SchemeHTTP   = "http"
	SchemeHTTPS  = "https"
	SchemeFile   = "file"
	SchemeAzBlob = "azblob"
)

// SourceValidator checks panel image locations before anything is fetched
type SourceValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewSourceValidator accepts every supported scheme and any host
func NewSourceValidator() *SourceValidator {
	return &SourceValidator{
		allowedSchemes: []string{SchemeHTTP, SchemeHTTPS, SchemeFile, SchemeAzBlob},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewSourceValidatorWithOptions restricts schemes and, for http(s), hosts
func NewSourceValidatorWithOptions(schemes []string, hosts []string) *SourceValidator {
	return &SourceValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidatePanelSource validates a panel image location. Accepted forms:
// http(s)://host/path, file:///relative/or/absolute/path and
// azblob://container/blob/path.
func (v *SourceValidator) ValidatePanelSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return apperrors.NewValidationError("panel source cannot be empty", nil)
	}

	parsed, err := url.Parse(source)
	if err != nil {
		return apperrors.NewValidationError("invalid panel source format", err)
	}

	if !v.isSchemeAllowed(parsed.Scheme) {
		return apperrors.NewValidationError("panel source scheme not allowed", nil)
	}

	switch parsed.Scheme {
	case SchemeFile:
		if strings.Trim(parsed.Path, "/") == "" {
			return apperrors.NewValidationError("file source must name a path", nil)
		}
		if containsDotDot(parsed.Path) {
			return apperrors.NewValidationError("file source must not leave the panel root", nil)
		}
	case SchemeAzBlob:
		if parsed.Host == "" || strings.Trim(parsed.Path, "/") == "" {
			return apperrors.NewValidationError("azblob source must be azblob://container/blob", nil)
		}
	default:
		if parsed.Host == "" {
			return apperrors.NewValidationError("panel source must have a valid host", nil)
		}
		if !v.isHostAllowed(parsed.Hostname()) {
			return apperrors.NewValidationError("panel source host not allowed", nil)
		}
	}

	return nil
}

func (v *SourceValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed returns true if no host restrictions are set
func (v *SourceValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}

func containsDotDot(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
