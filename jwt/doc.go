// Package jwt encodes sessions as HS256 signed tokens and decodes them with
// verify-before-parse semantics, so services without store access can trust
// a session on the shared secret alone.
//
// Secret rotation is supported by listing retired secrets in
// Config.PreviousSecrets; new tokens are always signed with Config.Secret.
package jwt
