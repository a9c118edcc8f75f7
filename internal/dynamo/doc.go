// Package dynamo provides the frame-driven particle engine shared by every
// decorative mode.
//
// The package defines the core types and the driver loop:
//
//   - [Body]: one particle (position, velocity, radius, mode payload)
//   - [Mode]: integration, collision and draw policy selected at construction
//   - [Surface]: the drawing target
//   - [Engine]: owns the bodies and runs integrate → resolve → render per frame
//   - [Ensemble]: runs independent headless engines concurrently
//
// # Example
//
//	mode := physics.NewStarfield()
//	eng, _ := dynamo.New(mode, export.NewRaster(1280, 720), cfg, dynamo.ReducedMotion(false))
//	eng.SetScrollSource(scroll)
//	_ = eng.Start(ctx)
//	defer eng.Stop()
//
// # Thread Safety
//
// Engine methods may be called from any goroutine. A single frame always
// runs to completion under the engine lock, so input delivered mid-frame is
// applied on the next frame. Bodies are owned by one engine and never shared.
package dynamo
