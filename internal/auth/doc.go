// package auth handles local accounts: bcrypt password hashes, signed session tokens
// and the request-context plumbing that carries the authenticated user id.
//
// Tokens are HS256 JWTs whose subject is the user id. They are accepted from either
// the x-auth-token header or an Authorization bearer header.
package auth
