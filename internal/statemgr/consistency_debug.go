//go:build !prod

package statemgr

// consistencyChecksEnabled is true for every build except those tagged
// "prod", per spec §7: Inconsistent is produced by CheckConsistency only in
// debug builds.
const consistencyChecksEnabled = true
