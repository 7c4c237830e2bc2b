// Package model holds the records exchanged between the HTTP layer,
// the services and the repositories.
package model
