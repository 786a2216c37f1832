package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfoCarriesBuildValues(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestShortWithCommit(t *testing.T) {
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	Version = "1.2.3"
	Commit = "0123456789abcdef"
	assert.Equal(t, "1.2.3 (01234567)", Short())

	Commit = "unknown"
	assert.Equal(t, "1.2.3", Short())
}

func TestStringMentionsAppName(t *testing.T) {
	assert.Contains(t, String(), AppName)
}

func TestUserAgent(t *testing.T) {
	origVersion := Version
	t.Cleanup(func() { Version = origVersion })

	Version = "9.9.9"
	assert.Equal(t, "pipelinec/9.9.9", UserAgent())
}
