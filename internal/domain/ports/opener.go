package ports

// ArtifactOpener hands a written artifact to the platform viewer
type ArtifactOpener interface {
	// Open starts the viewer for path without waiting for it to exit
	Open(path string) error
	// Detect names the opener that would be used
	Detect() (string, error)
}
