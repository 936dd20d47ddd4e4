package version

// Build information. Populated at build time via -ldflags:
//
//	go build -ldflags "-X vaultkit/pkg/version.Version=v0.3.0 \
//	  -X vaultkit/pkg/version.GitCommit=$(git rev-parse --short HEAD) \
//	  -X vaultkit/pkg/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
