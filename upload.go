package main

// UploadRun sends a finished run to the collection server: first an empty
// row so the server knows the run exists even if the data upload fails, then
// the run bytes themselves. Whether anything actually goes over the wire
// depends on the http_enabled build tag; release builds for other people get
// the uploading variant, my own builds usually don't.
func UploadRun(user string, run *Run) {
	InitializeRunInDbHttp(user, run.ReleaseVersion, run.SimulationVersion,
		run.InputVersion, run.Id)
	UploadRunDataHttp(user, run.ReleaseVersion, run.SimulationVersion,
		run.InputVersion, run.Id, run.Serialize())
}
