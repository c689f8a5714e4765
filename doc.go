// Package persona manages the lifecycle of user accounts: registration,
// credential checks, email verification, profile and password changes, and
// password recovery through single-use tokens.
//
// Account lifecycle:
//   - Register validates the payload, hashes the password and persists a
//     new account in the configured new account state. An email token is
//     minted and a user::created event is published with it.
//   - VerifyEmail redeems that token and moves a pending account to the
//     verified state. Status changes run through StatusHook callbacks, a
//     hook error aborts the operation.
//   - UpdateEmail, and UpdateProfile when the email changes, move the
//     account back to the new state and mint a fresh email token.
//
// Tokens:
//   - Tokens are typed (email or password) and live for TokenLifetime from
//     their last update. GenerateToken reuses a live token of the same type
//     for the account instead of minting a second one.
//
// Storage and events:
//   - AccountRepository and TokenRepository describe the store. The
//     repository package implements them with Bun on SQLite and Postgres,
//     memstore keeps everything in memory.
//   - Events go to an EventPublisher. The command handlers run operations in
//     a transaction and publish only after the commit. The eventbus package
//     ships a Redis publisher and the metrics package a Prometheus
//     instrumented one.
package persona
