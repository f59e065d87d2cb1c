package cmd

import (
	"fmt"

	"github.com/sofmeright/nightlyfreight/src/listing"
)

var listingFile string

// newSource returns the replay source when --listing-file is set, otherwise
// an HTTP source using the configured timeout.
func newSource() (listing.Source, error) {
	if listingFile != "" {
		src, err := listing.LoadStatic(listingFile)
		if err != nil {
			return nil, fmt.Errorf("loading listing file: %w", err)
		}
		log.WithField("urls", src.URLs()).Debug("replaying listings")
		return src, nil
	}
	return listing.NewHTTPSource(cfg.ListingTimeout()), nil
}
