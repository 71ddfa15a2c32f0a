// Package flagstore provides durable auth.RoleFlags implementations.
//
// Every store writes the three flags in one operation so readers never see
// two active roles or a half written set. Reads that find more than one
// active flag return auth.ErrCorruptRoleFlags.
package flagstore
