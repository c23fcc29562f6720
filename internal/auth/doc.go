// Package auth issues and validates the bearer tokens log producers present
// to the ingest API.
//
// Tokens are HS256 JWTs signed with api.jwt_secret. The subject names the
// producer; the scope claim must be "logs:write".
package auth
