// Package endpoint resolves the base URL for a service in a region.
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNoRegion is returned for a regional service when no region is configured.
var ErrNoRegion = errors.New("endpoint: region is required")

// Service identifies how a service is addressed.
type Service struct {
	Prefix string // DNS label, e.g. "sts", "cognito-sync"
	Global bool   // Single endpoint per partition, e.g. iam
}

// Resolve returns the endpoint for svc. A non-empty override always wins.
func Resolve(svc Service, region, override string) (string, error) {
	if override != "" {
		u, err := url.Parse(override)
		if err != nil {
			return "", fmt.Errorf("endpoint: invalid override %q: %w", override, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return "", fmt.Errorf("endpoint: override %q must be an absolute URL", override)
		}
		return strings.TrimRight(override, "/"), nil
	}
	if svc.Prefix == "" {
		return "", errors.New("endpoint: service prefix is required")
	}

	if svc.Global {
		if IsChinaRegion(region) {
			return fmt.Sprintf("https://%s.cn-north-1.amazonaws.com.cn", svc.Prefix), nil
		}
		return fmt.Sprintf("https://%s.amazonaws.com", svc.Prefix), nil
	}

	if region == "" {
		return "", fmt.Errorf("%w for %s", ErrNoRegion, svc.Prefix)
	}
	return fmt.Sprintf("https://%s.%s.%s", svc.Prefix, region, DNSSuffix(region)), nil
}

// SigningRegion is the region a request to svc must be signed for.
func SigningRegion(svc Service, region string) string {
	if !svc.Global {
		return region
	}
	if IsChinaRegion(region) {
		return "cn-north-1"
	}
	return "us-east-1"
}

// IsChinaRegion reports whether region is in the aws-cn partition.
func IsChinaRegion(region string) bool {
	return strings.HasPrefix(region, "cn-")
}

// DNSSuffix returns the partition's domain for region.
func DNSSuffix(region string) string {
	if IsChinaRegion(region) {
		return "amazonaws.com.cn"
	}
	return "amazonaws.com"
}
