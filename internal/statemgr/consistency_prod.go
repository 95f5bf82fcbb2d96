//go:build prod

package statemgr

// consistencyChecksEnabled is false in "prod" builds, per spec §7.
const consistencyChecksEnabled = false
