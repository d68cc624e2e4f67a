package geolocate

import (
	"fmt"
	"strings"

	"github.com/yanqian/genui-analytics/internal/domain/location"
)

// Provider names accepted by New.
const (
	ProviderBrowser  = "browser"
	ProviderIPAPI    = "ipapi"
	ProviderDisabled = "disabled"
)

// New picks the locator implementation for the configured provider.
func New(provider, ipapiBaseURL string) (location.Locator, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderBrowser:
		return NewBrowserLocator(), nil
	case ProviderIPAPI:
		return NewIPAPILocator(ipapiBaseURL), nil
	case ProviderDisabled:
		return DisabledLocator{}, nil
	default:
		return nil, fmt.Errorf("unknown location provider %q", provider)
	}
}
