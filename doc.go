// Package gqlauth provides a transport-agnostic authentication layer for
// GraphQL mutation resolvers: access/refresh token issuance, signed workflow
// links for email verification and password flows, and a pluggable credential
// backend.
//
// Outcomes:
//   - Every mutation handler reports anticipated failures (bad credentials,
//     expired tokens, failed captcha) through an Outcome envelope keyed by
//     field, so resolvers return structured errors instead of raising. Only
//     genuinely unexpected failures propagate as Go errors.
//
// Credential backend:
//   - CredentialBackend is the capability boundary the embedding application
//     implements. All user state lives behind it; the package itself owns only
//     refresh tokens and captcha challenges, persisted via Bun. BunBackend is
//     a ready-made implementation over the bundled Users repository.
//
// Tokens:
//   - AccessTokenService issues short-lived JWTs through a pluggable codec
//     (symmetric HS256 by default, JWKS verification for federated setups).
//     RefreshTokenStore rotates opaque single-use refresh tokens inside a
//     serializable transaction so a stolen token can be spent at most once.
//   - PayloadSigner mints the signed links mailed out for account activation,
//     password reset/set, and secondary email verification. Each link is
//     scoped to a single workflow and never accepted by another.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter fed by every mutation
//     handler. Sinks run best-effort (errors are logged) so you can forward
//     to a database or queue without blocking authentication.
package gqlauth
