// Package viz shows generator runs in the terminal.
//
// The package implements a TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one engine, consuming its frames
//   - [Canvas]: Braille-based pixel canvas for the frame preview
//   - a generator and preset picker started by [RunInteractive]
//
// # Key Bindings
//
//	Space - Pause/Resume taking frames
//	S     - Start or restart the generation
//	C     - Cancel the running generation
//	Tab   - Cycle the plotted metric
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
//	Esc   - Back to the preset list (picker only)
//
// While paused the view stops taking frames, so an animated generator
// waits on its next frame instead of running ahead.
package viz
