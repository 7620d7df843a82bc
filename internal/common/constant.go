package common

// AuthorizationHeaderName is the HTTP header carrying the session token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the fixed scheme prefix expected in AuthorizationHeaderName.
const BearerScheme = "Bearer "
