package config

import (
	"regexp"

	"github.com/projectdiscovery/mapcidr"
)

var cidrSuffix = regexp.MustCompile(`\/\d{1,2}$`)

// expandTargets converts each target into server specs carrying only a
// host, leaving the rest for the ssh defaults. CIDR targets expand to
// one spec per address.
func expandTargets(targets []string) ([]ServerSpec, error) {
	specs := []ServerSpec{}

	for _, t := range targets {
		if cidrSuffix.MatchString(t) {
			ips, err := mapcidr.IPAddresses(t)

			if err != nil {
				return nil, err
			}

			for _, ip := range ips {
				specs = append(specs, ServerSpec{Host: ip})
			}
		} else {
			specs = append(specs, ServerSpec{Host: t})
		}
	}

	return specs, nil
}
