// Package common contains shared constants and sentinel errors used across
// the gadget API components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// EnvDevelopment enables diagnostic error details in responses.
const EnvDevelopment = "development"
