package common

import "github.com/nspcc-dev/neo-go/pkg/interop/native/std"

// Contract version is encoded as major*1_000_000 + minor*1_000 + patch and
// must match the VERSION file.
const (
	major = 0
	minor = 1
	patch = 0

	Version = major*1_000_000 + minor*1_000 + patch

	// MinUpdateVersion is the oldest version the contract can be updated
	// from without data migration.
	MinUpdateVersion = 0
)

// Abort messages of CheckVersion.
const (
	ErrVersionMismatch = "previous version mismatch"
	ErrAlreadyUpdated  = "contract is already of the latest version"
)

// CheckVersion aborts the update from versions older than MinUpdateVersion
// and from the current version.
func CheckVersion(from int) {
	if from < MinUpdateVersion {
		panic(ErrVersionMismatch + ": expected >=" + std.Itoa(MinUpdateVersion, 10))
	}
	if from == Version {
		panic(ErrAlreadyUpdated + ": " + std.Itoa(Version, 10))
	}
}

// AppendVersion appends version of the running code to the update data, so
// the new code can check it in _deploy.
func AppendVersion(data any) []any {
	if data == nil {
		return []any{Version}
	}
	return append(data.([]any), Version)
}
