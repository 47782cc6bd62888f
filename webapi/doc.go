// Package webapi exposes the billing and studio services over HTTP: JSON
// endpoints behind bearer-token auth, the unauthenticated provider webhook,
// and a health endpoint. Domain sentinel errors are translated to status
// codes in one place; handlers stay thin.
package webapi
