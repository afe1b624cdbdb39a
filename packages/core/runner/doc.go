// Package runner orchestrates request calls against a loaded schema.
//
// A Runner owns one merged schema, one environment selection, one script
// dispatcher and one overrides map. Each call moves through
// Idle, ScriptPre, Built, Executed, ScriptPost and Done, stopping in
// Failed at the first error. Environment resolution happens fresh before
// every build, so overrides written by a script are visible to later calls.
//
// A Runner is not safe for concurrent use. Queues returned by CallQueue and
// SequenceQueue must be executed in order, one call at a time; RunQueue
// does exactly that.
package runner
