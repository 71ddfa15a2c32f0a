// Package auth tracks the authentication session of the marketplace client
// and scopes navigation by account role.
//
// Session store:
//   - Router holds the current Session, its Principal and the derived Role.
//     Initialize, the backend change stream and the public operations all
//     write through one atomic replace, so consumers never see a session
//     without its matching role.
//   - Start subscribes to the change stream before loading the current
//     session; Close releases the subscription.
//
// Roles:
//   - ResolveRole reads the "role" metadata field of a Principal and fails
//     open to RoleUnknown for anything it does not recognise.
//   - SignUp is the only operation that writes a role.
//
// Role flags:
//   - RoleFlags is a durable mirror of the active role that other components
//     read directly. At most one flag is set. The Router overwrites the flags
//     whenever the session changes, so stale flags left by an expired
//     session are replaced once the session is known.
//   - Durable stores live in the flagstore package.
//
// Redirects:
//   - RedirectTable maps entry path then role to a target and only fires on
//     a fresh sign in, which keeps re-renders from looping.
package auth
