// Package ui implements an interactive playlist copy using bubbletea's Elm architecture.
//
// The TUI walks through:
//  1. [SourceListView] : pick the playlist to copy from
//  2. [TargetListView] : pick the playlist to append to
//  3. [ConfirmView] : confirm the copy
//  4. [TransferView] : watch batch progress
//  5. [ResultView] : see how many tracks were added, or why the copy stopped
//
// Progress updates arrive on a channel the engine writes without blocking; the model reads one
// update per command so the UI never stalls the copy.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help from charmbracelet/bubbles/help.
package ui
