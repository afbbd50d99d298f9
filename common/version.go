package common

// PackageName is used as the metrics namespace.
const PackageName = "p8e_publisher"

// Version is overridden at build time via -ldflags "-X .../common.Version=...".
var Version = "dev"
