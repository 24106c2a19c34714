package common

// AuthorizationHeaderName is the HTTP header carrying the session token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the session token in AuthorizationHeaderName.
const BearerPrefix = "Bearer "
