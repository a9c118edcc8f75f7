// Package viz is the live terminal host.
//
// Bodies are drawn on a braille [Canvas] through [BrailleSurface], which
// implements the engine's drawing surface with per-dot intensity so fade
// trails survive on a one-bit grid. [Model] is a Bubble Tea program that
// drives the engine once per tick and feeds it terminal input:
//
//   - mouse press, drag and release become pointer events
//   - the wheel and the arrow keys add scroll velocity, which decays each tick
//   - window resizes resize the engine surface without respawning bodies
//
// # Key Bindings
//
//	Space - Pause/Resume
//	M     - Next mode
//	R     - Rebuild with a new seed
//	r     - Toggle reduced motion
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
package viz
