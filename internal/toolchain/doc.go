// Package toolchain runs the external firmware tools (west, imgtool,
// nrfutil, mcumgr) and builds their command lines.
//
// Callers depend on the Runner interface. ExecRunner invokes real binaries
// with stdout and stderr passed through to the terminal; FakeRunner records
// invocations and replays scripted results for tests in other packages.
package toolchain
