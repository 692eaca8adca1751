// Package viz renders creatures in the terminal.
//
// A [Canvas] of braille dots is drawn through a perspective [Camera] that
// orbits the creature and follows it as it walks. [Model] is a Bubble Tea
// program that plays a creature's behavior in real time; [Browser] lists
// stored runs and opens a [Model] on the chosen champion.
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	R      - Restart from the rest pose
//	F/S    - Faster/slower playback
//	Arrows - Orbit the camera
//	+/-    - Zoom
//	T      - Cycle color themes
//	?      - Show help overlay
package viz
