package common

// AuthorizationHeaderName is the HTTP header carrying the bearer session
// token on privileged requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the session token inside the authorization header.
const BearerPrefix = "Bearer "
