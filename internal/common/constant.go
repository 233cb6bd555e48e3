// Package common contains shared constants and sentinel errors used across
// gopfolio components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// AmountScale is the number of fractional digits stored for money values
// and percentages.
const AmountScale = 2
