package ui

import (
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/tasks"
)

type playlistsFetchedMsg struct {
	listing *models.PlaylistListing
	err     error
}

type progressUpdateMsg tasks.ProgressUpdate

type copyCompleteMsg struct {
	result *models.TransferResult
	err    error
}
