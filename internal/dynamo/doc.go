// Package dynamo holds the primitives shared by every part of the physics core.
//
// It defines:
//
//   - [Handle]: stable identifier of a body inside a world
//   - [Pose] and [BodyState]: read-only views consumed by renderers and recorders
//   - [Observer] and [Metric]: per-frame hooks driven by the world and scenario runner
//   - [Logger]: leveled logging used by the world and the CLI
//   - the sentinel errors and the [ConfigError] / [InstabilityError] wrappers
//
// # Error Handling
//
// Configuration problems surface synchronously and can be tested with errors.Is:
//
//	_, err := w.CreateBody(spec)
//	if errors.Is(err, dynamo.ErrInvalidMass) {
//	    // reject the scene
//	}
//
// Numerical instability never leaves the world; it is recovered internally and only
// reported through the logger and step statistics.
package dynamo
