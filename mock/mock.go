// Package mock is used to generate mock files for testing.
package mock

//go:generate mockgen -source ../audit/audit_iface.go -destination mock_audit/mock_audit_iface.go
//go:generate mockgen -source ../identity/identity_iface.go -destination mock_identity/mock_identity_iface.go
//go:generate mockgen -source ../roles/roles_iface.go -destination mock_roles/mock_roles_iface.go
//go:generate mockgen -source ../sessionstate/sessionstate_iface.go -destination mock_sessionstate/mock_sessionstate_iface.go
