// Package testutil contains helpers used across tests to build model replies
// and script gateway behaviour. They are not intended for production usage.
package testutil
