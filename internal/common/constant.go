package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the session
// (bearer) token on outbound requests.
const AccessTokenHeaderName = "access_token"

// ShareTokenHeaderName is the gRPC metadata key used to carry a public share
// token for anonymous downloads.
const ShareTokenHeaderName = "share_token"

// MaxNameLength is the longest node name accepted, in bytes.
const MaxNameLength = 255
