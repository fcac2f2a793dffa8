// Package models defines domain entities for the resub batch controller.
//
// The package contains two categories of types:
//
// 1. Batch types flowing through the control loop:
//   - [ChannelEntry] : One row of the subscriptions export, positionally ordered
//   - [Outcome] : Classified result of one subscription attempt
//   - [FailureReason] : Reason taxonomy for non-success outcomes
//
// 2. Persistent entities backing the run-history database:
//   - [Run] : One recorded invocation of the batch controller
//
// Expected negative outcomes (already subscribed, channel missing, UI
// timeout, rate limiting) are modeled as [Outcome] values with a
// [FailureReason]; the controller's flow never depends on error types for
// expected conditions.
package models
