// Package lib groups helpers that sit outside the request layers: the
// asynq notification worker, the Resend email client, schedule source file
// access and small output utilities.
package lib
