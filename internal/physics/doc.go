// Package physics provides the modes an engine can run.
//
// Each mode implements [dynamo.Mode], bundling the per-frame integration rule,
// the collision response and the draw policy for one decorative feature:
//
//   - [GravityBoard]: labelled balls under gravity with soft collisions and drag-and-throw
//   - [Starfield]: stars flying toward the viewer, sped up by scroll velocity
//   - [Field]: drifting stars, dust or a linked network that wraps at the edges
//   - [Matrix]: falling glyphs
//   - [Noise]: per-frame film grain with no bodies
//
// Modes keep no per-engine state of their own; everything that changes from
// frame to frame lives in the bodies, so a mode value may be reused.
package physics
