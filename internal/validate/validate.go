package validate

import (
	"fmt"
	"strings"
)

// ValidAWSRegions is the set of regions a stage may target.
var ValidAWSRegions = map[string]bool{
	"us-east-1":      true,
	"us-east-2":      true,
	"us-west-1":      true,
	"us-west-2":      true,
	"ca-central-1":   true,
	"eu-west-1":      true,
	"eu-west-2":      true,
	"eu-west-3":      true,
	"eu-central-1":   true,
	"eu-north-1":     true,
	"ap-northeast-1": true,
	"ap-northeast-2": true,
	"ap-northeast-3": true,
	"ap-southeast-1": true,
	"ap-southeast-2": true,
	"ap-south-1":     true,
	"sa-east-1":      true,
}

// MaxNameLength bounds load balancer and target group names.
const MaxNameLength = 32

// StageName ensures the stage name follows the required format:
// - Lowercase letters, numbers, and hyphens only
// - Must start with a lowercase letter or number
// - No consecutive hyphens, no trailing hyphen
func StageName(name string) error {
	if name == "" {
		return Configuration("name", "stage name cannot be empty")
	}

	firstChar := rune(name[0])
	if !((firstChar >= 'a' && firstChar <= 'z') || (firstChar >= '0' && firstChar <= '9')) {
		return Configuration("name", "stage name must start with a lowercase letter or number")
	}

	prevHyphen := false
	for _, char := range name {
		if char == '-' {
			if prevHyphen {
				return Configuration("name", "stage name cannot contain consecutive hyphens")
			}
			prevHyphen = true
		} else if char >= 'A' && char <= 'Z' {
			return Configuration("name", "stage name cannot contain uppercase letters")
		} else if !((char >= 'a' && char <= 'z') || (char >= '0' && char <= '9')) {
			return Configuration("name", "stage name can only contain lowercase letters, numbers, and hyphens")
		} else {
			prevHyphen = false
		}
	}

	if name[len(name)-1] == '-' {
		return Configuration("name", "stage name cannot end with a hyphen")
	}

	return nil
}

// Region checks the region against ValidAWSRegions.
func Region(region string) error {
	if !ValidAWSRegions[region] {
		return Configuration("region", "invalid AWS region: %s", region)
	}
	return nil
}

// AvailabilityZone checks that az is "<region><letter>".
func AvailabilityZone(region, az string) error {
	context := fmt.Sprintf("availabilityZones '%s'", az)
	if !strings.HasPrefix(az, region) {
		return Configuration(context, "zone is not in region %s", region)
	}
	suffix := strings.TrimPrefix(az, region)
	if len(suffix) != 1 || suffix[0] < 'a' || suffix[0] > 'z' {
		return Configuration(context, "zone must be the region followed by a single letter")
	}
	return nil
}

// ResourceName enforces the platform name length bound.
func ResourceName(context, name string) error {
	if len(name) > MaxNameLength {
		return Configuration(context, "name %q exceeds %d characters", name, MaxNameLength)
	}
	return nil
}
