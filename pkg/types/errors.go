package types

import (
	"errors"
	"fmt"
)

var (
	ErrPriceFetch        = errors.New("price fetch failed")
	ErrFeeFetch          = errors.New("fee fetch failed")
	ErrQuoteFetch        = errors.New("amount quote failed")
	ErrAggregationFailed = errors.New("no venue returned a usable quote")
	ErrEstimationFailed  = errors.New("estimation failed")
	ErrUnsupportedVenue  = errors.New("unsupported venue")
	ErrTransactionBuild  = errors.New("transaction build failed")
	ErrSigning           = errors.New("signing failed")
	ErrBroadcast         = errors.New("broadcast failed")
	ErrInvalidOrder      = errors.New("invalid swap order")
)

// VenueError attaches the venue to an adapter failure
type VenueError struct {
	Venue VenueID
	Err   error
}

func (e *VenueError) Error() string {
	return fmt.Sprintf("%s: %v", e.Venue, e.Err)
}

func (e *VenueError) Unwrap() error {
	return e.Err
}
