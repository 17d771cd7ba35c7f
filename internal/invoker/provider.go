package invoker

import (
	"regexp"
	"strings"
)

// Provider names reported in invocation events.
const (
	ProviderAWS     = "AWS"
	ProviderIBM     = "IBM"
	ProviderGoogle  = "Google"
	ProviderAzure   = "Azure"
	ProviderUnknown = "unknown"
)

var (
	awsARN    = regexp.MustCompile(`^arn:aws:lambda:([a-z0-9-]+):`)
	awsURL    = regexp.MustCompile(`lambda(?:-url)?\.([a-z0-9-]+)\.(?:on\.)?aws`)
	awsGW     = regexp.MustCompile(`execute-api\.([a-z0-9-]+)\.amazonaws\.com`)
	ibmURL    = regexp.MustCompile(`^https?://([a-z0-9-]+)\.functions\.(?:cloud\.ibm|appdomain\.cloud)`)
	googleURL = regexp.MustCompile(`^https?://([a-z0-9-]+)-[a-z0-9-]+\.cloudfunctions\.net`)
	azureURL  = regexp.MustCompile(`\.azurewebsites\.net`)
)

// DetectProvider classifies a resource id by cloud provider and region.
// Unknown providers and regions are reported as "unknown".
func DetectProvider(resourceID string) (provider, region string) {
	id := strings.ToLower(resourceID)
	switch {
	case awsARN.MatchString(id):
		return ProviderAWS, awsARN.FindStringSubmatch(id)[1]
	case awsGW.MatchString(id):
		return ProviderAWS, awsGW.FindStringSubmatch(id)[1]
	case awsURL.MatchString(id):
		return ProviderAWS, awsURL.FindStringSubmatch(id)[1]
	case ibmURL.MatchString(id):
		return ProviderIBM, ibmURL.FindStringSubmatch(id)[1]
	case googleURL.MatchString(id):
		return ProviderGoogle, googleURL.FindStringSubmatch(id)[1]
	case azureURL.MatchString(id):
		return ProviderAzure, ProviderUnknown
	default:
		return ProviderUnknown, ProviderUnknown
	}
}
