// Package git reads source revisions of the west-managed checkouts a build
// consumes (the Zephyr tree and the mcuboot module) so build history can
// name exactly what was compiled.
package git
