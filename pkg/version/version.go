package version

import "strings"

var (
	// These values are injected during build - DO NOT MODIFY
	Version   = "VERSION_PLACEHOLDER"
	CommitSHA = "COMMIT_PLACEHOLDER"
)

const appName = "AnkiCopyCard"

func GetVersionInfo() string {
	return appName + " " + Version
}

func GetDetailedVersionInfo() string {
	return appName + "\n" +
		"Version:  " + Version + "\n" +
		"Commit:   " + CommitSHA + "\n"
}

// UserAgent identifies requests sent to AnkiConnect.
func UserAgent() string {
	return appName + "/" + strings.TrimPrefix(Version, "v")
}
