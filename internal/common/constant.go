package common

// APIKeyHeaderName is the HTTP header that carries the tenant API key.
const APIKeyHeaderName = "X-Api-Key"

// AuthorizationHeaderName carries the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the expected scheme prefix of the Authorization header.
const BearerPrefix = "Bearer "
