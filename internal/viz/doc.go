// Package viz draws worlds and recorded series in the terminal.
//
//   - [Canvas]: Braille pixel canvas with a side-view [Projection] of bodies
//   - [Plot] and [Sparkline]: asciigraph charts of recorded columns
//   - lipgloss styles shared by the CLI and the live viewer
package viz
