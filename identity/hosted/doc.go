// Package hosted talks to the hosted backend-as-a-service over its REST API.
//
// Client is the end-user side: it signs in, keeps the session fresh and
// dispatches auth-state events. AdminClient holds the service-level
// credential and is used by server-side handlers to resolve bearer tokens,
// manage accounts, check and assign roles and write activity records.
package hosted
