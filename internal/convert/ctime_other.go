// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !linux && !windows

package convert

import (
	"io/fs"
	"time"
)

// creationTime falls back to the modification time where no portable birth
// time is exposed.
func creationTime(_ string, info fs.FileInfo) time.Time {
	return info.ModTime()
}
