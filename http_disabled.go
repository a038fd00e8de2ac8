//go:build !http_enabled

package main

import (
	"github.com/google/uuid"
)

func InitializeRunInDbHttp(user string,
	releaseVersion int64,
	simulationVersion int64,
	inputVersion int64,
	id uuid.UUID) {
}

func UploadRunDataHttp(user string,
	releaseVersion int64,
	simulationVersion int64,
	inputVersion int64,
	id uuid.UUID, data []byte) {
}
